// Package xmlproc implements a streaming, namespace-aware, resumable
// XML 1.0 pull-parser with in-place editing: a byte-offset tokenizer,
// element/namespace stack, attribute table, bookmarks, a re-entrancy
// cursor, and streaming append/suspend.
//
// The tokenizer's shape - a struct walking a byte slice by hand, tracking
// position and emitting typed tokens one call at a time - follows the
// same readChar/peekChar/NextToken discipline as a classic hand-rolled
// lexer, generalized from a single in-memory string to a growable,
// truncatable streaming buffer with suspend/resume.
package xmlproc

import (
	"github.com/ha1tch/wxrimport/lexedit"
	"github.com/ha1tch/wxrimport/token"
)

// DefaultMemoryBudget is the default buffer size past which AppendBytes
// flushes processed prefix bytes out of the live buffer.
const DefaultMemoryBudget = 1 << 30 // 1 GiB

// MaxBookmarks is the live-bookmark ceiling.
const MaxBookmarks = 10

// MaxSeekOps bounds Seek reparses per processor lifetime.
const MaxSeekOps = 1000

// Processor is a streaming XML tokenizer and lexical editor. It is
// single-threaded and cooperative: all work happens inside calls made by
// the owner, never in the background.
type Processor struct {
	buf []byte
	pos int // scan cursor, relative to buf
	// tokenStart is the start offset of the token currently being
	// scanned, or -1 between tokens; flush_processed_xml never drops
	// past it so an in-flight token is never truncated mid-scan.
	tokenStart int

	upstreamForgotten int // bytes dropped from the front of buf so far
	memoryBudget      int

	expectingMoreInput bool
	inputFinished      bool

	state   State
	context Context
	lastErr *Error

	stack              []element
	documentNamespaces map[string]string
	sawDoctype         bool
	sawRoot            bool

	current token.Token

	bookmarks    map[string]lexedit.Span
	bookmarkSeek int // seek() calls performed so far

	updates lexedit.Queue

	// consumedAnything tracks whether <?xml ...?> is still legal; it is
	// only legal as the very first thing at absolute offset 0 of the
	// whole document.
	consumedAnything bool
	bomChecked       bool
}

func newProcessor(initial []byte, cursor *Cursor, streaming bool) (*Processor, error) {
	p := &Processor{
		buf:                initial,
		tokenStart:         -1,
		memoryBudget:       DefaultMemoryBudget,
		state:              Ready,
		context:            InProlog,
		documentNamespaces: seedNamespaces(),
		bookmarks:          make(map[string]lexedit.Span),
		expectingMoreInput: streaming,
	}
	if cursor != nil {
		payload, err := decodeCursor(*cursor)
		if err != nil {
			return nil, err
		}
		p.upstreamForgotten = payload.UpstreamForgotten
		p.context = payload.ParserContext
		p.expectingMoreInput = payload.ExpectingMore
		if payload.DocumentNS != nil {
			p.documentNamespaces = payload.DocumentNS
		}
		p.stack = make([]element, len(payload.Stack))
		for i, f := range payload.Stack {
			p.stack[i] = element{
				localName:         f.Local,
				namespacePrefix:   f.Prefix,
				namespaceURI:      f.URI,
				namespacesInScope: f.Namespaces,
			}
		}
		p.consumedAnything = true // resumed mid-document: offset 0 rules no longer apply
		if len(p.stack) > 0 {
			p.context = InElement
		}
	}
	return p, nil
}

// FromString constructs a Processor over a complete, already-fully-read
// document. expecting_more_input is false: a token straddling the end of
// buf is a syntax error, not a suspension.
func FromString(data []byte, cursor *Cursor) (*Processor, error) {
	return newProcessor(data, cursor, false)
}

// ForStreaming constructs a Processor that expects AppendBytes to supply
// more data over time. A token straddling the end of buf suspends with
// IncompleteInput until more bytes arrive or InputFinished is called.
func ForStreaming(initial []byte, cursor *Cursor) (*Processor, error) {
	return newProcessor(initial, cursor, true)
}

// CreateForStreaming resumes parsing at the byte that produced cursor,
// given the remaining tail bytes.
func CreateForStreaming(tailBytes []byte, cursor Cursor) (*Processor, error) {
	return ForStreaming(tailBytes, &cursor)
}

// State returns the processor's current ParserState.
func (p *Processor) State() State { return p.state }

// Context returns the processor's current ParserContext.
func (p *Processor) Context() Context { return p.context }

// LastError returns the last error the processor raised, or nil.
func (p *Processor) LastError() *Error { return p.lastErr }

// IsPausedAtIncompleteInput reports whether the processor suspended mid
// token awaiting more bytes.
func (p *Processor) IsPausedAtIncompleteInput() bool { return p.state == IncompleteInput }

// GetCurrentDepth returns the number of elements currently open.
func (p *Processor) GetCurrentDepth() int { return len(p.stack) }

// RemainingBuffer returns the bytes buffered but not yet consumed. Paired
// with GetReentrancyCursor at the same point, it is the tailBytes
// CreateForStreaming expects to resume parsing.
func (p *Processor) RemainingBuffer() []byte {
	return p.buf[p.pos:]
}

// CurrentToken returns the token produced by the most recent successful
// NextToken call.
func (p *Processor) CurrentToken() token.Token { return p.current }

// absolute converts a buffer-relative offset to an absolute document
// offset, accounting for bytes dropped by streaming flushes.
func (p *Processor) absolute(localOffset int) int { return p.upstreamForgotten + localOffset }

func (p *Processor) fail(err *Error) bool {
	p.lastErr = err
	if err.Kind == IncompleteInputError {
		p.state = IncompleteInput
	} else {
		p.state = InvalidDocument
	}
	p.updates.Reset()
	return false
}

// GetBreadcrumbs returns the open element stack as (namespace, local)
// pairs, root first.
func (p *Processor) GetBreadcrumbs() []Breadcrumb {
	out := make([]Breadcrumb, len(p.stack))
	for i, el := range p.stack {
		out[i] = Breadcrumb{Namespace: el.namespaceURI, Local: el.localName}
	}
	return out
}

// Breadcrumb is one (namespace, local_name) entry of an open element
// stack or a NextTag query pattern.
type Breadcrumb struct {
	Namespace string
	Local     string
}
