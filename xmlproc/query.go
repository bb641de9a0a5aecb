package xmlproc

import (
	"sort"
	"strings"

	"github.com/ha1tch/wxrimport/token"
	"github.com/ha1tch/wxrimport/xmlchar"
)

// NextTagAny advances the token stream until it lands on any opening tag
// (or self-closing tag), the no-argument next_tag() form.
func (p *Processor) NextTagAny() bool {
	return p.nextTagMatching(func(token.Token) bool { return true })
}

// NextTag advances the token stream until it lands on an opening tag (or
// self-closing tag) whose local name matches in the empty namespace, the
// bare-string next_tag(name) form.
func (p *Processor) NextTag(local string) bool {
	return p.nextTagMatching(func(t token.Token) bool {
		return t.NamespaceURI == "" && t.LocalName == local
	})
}

// NextTagNS is the (namespace, local) tuple form of next_tag: either
// argument may be "*" to wildcard that position.
func (p *Processor) NextTagNS(uri, local string) bool {
	return p.nextTagMatching(func(t token.Token) bool {
		return (uri == "*" || t.NamespaceURI == uri) && (local == "*" || t.LocalName == local)
	})
}

// NextTagBreadcrumbs is the breadcrumbs-record form of next_tag: it
// advances until the open element stack matches trail (see
// MatchesBreadcrumbs for wildcarding) for the matchOffset'th time, 0
// selecting the first match.
func (p *Processor) NextTagBreadcrumbs(trail []Breadcrumb, matchOffset int) bool {
	seen := 0
	for p.NextToken() {
		if p.current.Kind != token.Tag || p.current.IsCloser {
			continue
		}
		if !p.MatchesBreadcrumbs(trail) {
			continue
		}
		if seen == matchOffset {
			return true
		}
		seen++
	}
	return false
}

func (p *Processor) nextTagMatching(match func(token.Token) bool) bool {
	for p.NextToken() {
		if p.current.Kind == token.Tag && !p.current.IsCloser && match(p.current) {
			return true
		}
	}
	return false
}

// MatchesBreadcrumbs reports whether the currently open element stack
// matches trail exactly, where a Breadcrumb with Local == "*" matches any
// local name at that depth and Namespace == "*" matches any namespace.
// When the current token is a self-closing tag, that element counts as
// the innermost open element, as a non-empty opening tag does.
func (p *Processor) MatchesBreadcrumbs(trail []Breadcrumb) bool {
	crumbs := p.GetBreadcrumbs()
	if p.current.Kind == token.Tag && !p.current.IsCloser && p.current.IsEmpty {
		crumbs = append(crumbs, Breadcrumb{Namespace: p.current.NamespaceURI, Local: p.current.LocalName})
	}
	if len(crumbs) != len(trail) {
		return false
	}
	for i, want := range trail {
		got := crumbs[i]
		if want.Local != "*" && want.Local != got.Local {
			return false
		}
		if want.Namespace != "*" && want.Namespace != got.Namespace {
			return false
		}
	}
	return true
}

// GetTagNamespace returns the namespace URI of the current Tag token.
func (p *Processor) GetTagNamespace() string { return p.current.NamespaceURI }

// GetTagLocalName returns the local name of the current Tag token.
func (p *Processor) GetTagLocalName() string { return p.current.LocalName }

// GetTagNamespaceAndLocalName is a convenience combining GetTagNamespace
// and GetTagLocalName.
func (p *Processor) GetTagNamespaceAndLocalName() (string, string) {
	return p.current.NamespaceURI, p.current.LocalName
}

// GetAttribute returns the entity-decoded value of the attribute
// identified by (uri, local) on the current Tag token. The empty string
// uri matches unprefixed attributes, distinct from "no such attribute".
func (p *Processor) GetAttribute(uri, local string) (string, bool) {
	idx, ok := findAttr(&p.current, uri, local)
	if !ok {
		return "", false
	}
	decoded, err := xmlchar.DecodeEntities(p.current.Attrs[idx].Value)
	if err != nil {
		return p.current.Attrs[idx].Value, true
	}
	return decoded, true
}

// GetAttributeNamesWithPrefix returns the qualified keys of every
// attribute on the current Tag token whose bound namespace prefix equals
// nsPrefix and whose local name starts with localPrefix, sorted for
// deterministic iteration.
func (p *Processor) GetAttributeNamesWithPrefix(nsPrefix, localPrefix string) []token.AttrKey {
	var out []token.AttrKey
	for _, a := range p.current.Attrs {
		if a.Prefix != nsPrefix {
			continue
		}
		if !strings.HasPrefix(a.Key.Local, localPrefix) {
			continue
		}
		out = append(out, a.Key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URI != out[j].URI {
			return out[i].URI < out[j].URI
		}
		return out[i].Local < out[j].Local
	})
	return out
}

// GetModifiableText returns the current token's text payload, decoding
// entities for Text nodes. CDATA, Comment, and ProcessingInstruction
// payloads get the same line-ending normalization but are never
// entity-decoded.
func (p *Processor) GetModifiableText() (string, bool) {
	switch p.current.Kind {
	case token.Text:
		raw := xmlchar.NormalizeLineEndings(p.buf[p.current.TextStart : p.current.TextStart+p.current.TextLength])
		decoded, err := xmlchar.DecodeEntities(string(raw))
		if err != nil {
			return string(raw), true
		}
		return decoded, true
	case token.CData, token.Comment, token.ProcessingInstruction:
		raw := xmlchar.NormalizeLineEndings(p.buf[p.current.TextStart : p.current.TextStart+p.current.TextLength])
		return string(raw), true
	default:
		return "", false
	}
}
