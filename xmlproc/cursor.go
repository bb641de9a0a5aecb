package xmlproc

import (
	"encoding/base64"

	jsoniter "github.com/json-iterator/go"
)

var cursorJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// cursorFrame mirrors one element stack entry well enough to resume
// namespace resolution after the document prefix has been dropped.
type cursorFrame struct {
	Local      string            `json:"l"`
	Prefix     string            `json:"p,omitempty"`
	URI        string            `json:"u,omitempty"`
	Namespaces map[string]string `json:"ns,omitempty"`
}

// cursorPayload is the structure behind the opaque textual Cursor.
// Consumers must treat the encoded string as opaque; only this package
// interprets it.
type cursorPayload struct {
	IsFinished        bool              `json:"fin"`
	UpstreamForgotten int               `json:"up"`
	ParserContext     Context           `json:"ctx"`
	Stack             []cursorFrame     `json:"stack"`
	ExpectingMore     bool              `json:"more"`
	DocumentNS        map[string]string `json:"dns,omitempty"`
}

// Cursor is the opaque, textually encoded re-entrancy cursor. Callers
// should only store it, compare it for equality, or pass it back into
// CreateForStreaming/FromString.
type Cursor string

func encodeCursor(p cursorPayload) Cursor {
	data, err := cursorJSON.Marshal(p)
	if err != nil {
		// Marshaling a plain struct of strings/maps/bools never fails;
		// a failure here would be a programming error in this package.
		panic("xmlproc: cursor encode: " + err.Error())
	}
	return Cursor(base64.RawURLEncoding.EncodeToString(data))
}

func decodeCursor(c Cursor) (cursorPayload, error) {
	var p cursorPayload
	raw, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return p, err
	}
	if err := cursorJSON.Unmarshal(raw, &p); err != nil {
		return p, err
	}
	return p, nil
}

// GetReentrancyCursor returns an opaque cursor capturing just enough state
// (open-element stack, namespace scope, prolog/element/misc context, and
// whether the stream is finished) to resume parsing at the byte that
// produced it.
func (p *Processor) GetReentrancyCursor() Cursor {
	frames := make([]cursorFrame, len(p.stack))
	for i, el := range p.stack {
		frames[i] = cursorFrame{
			Local:      el.localName,
			Prefix:     el.namespacePrefix,
			URI:        el.namespaceURI,
			Namespaces: el.namespacesInScope,
		}
	}
	doc := p.documentNamespaces
	if len(p.stack) > 0 {
		doc = p.stack[len(p.stack)-1].namespacesInScope
	}
	return encodeCursor(cursorPayload{
		IsFinished:        p.state == Complete,
		UpstreamForgotten: p.upstreamForgotten,
		ParserContext:     p.context,
		Stack:             frames,
		ExpectingMore:     p.expectingMoreInput,
		DocumentNS:        doc,
	})
}
