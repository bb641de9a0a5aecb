package xmlproc

import (
	"fmt"

	"github.com/ha1tch/wxrimport/lexedit"
	"github.com/ha1tch/wxrimport/token"
)

// applyPendingUpdates flushes p.updates against p.buf, re-anchoring every
// live bookmark and p.pos.
func (p *Processor) applyPendingUpdates() error {
	if p.updates.Len() == 0 {
		return nil
	}
	newBuf, newBookmarks, newPos, err := lexedit.Apply(p.buf, &p.updates, nil, p.bookmarks, p.pos)
	if err != nil {
		return err
	}
	p.buf = newBuf
	p.bookmarks = newBookmarks
	p.pos = newPos
	return nil
}

// GetUpdatedXML flushes every pending lexical update and returns the
// resulting document bytes. It is only meaningful once the whole document
// is held in the live buffer (no streaming flush has occurred ahead of
// the edited region).
func (p *Processor) GetUpdatedXML() ([]byte, error) {
	if p.lastErr != nil {
		return nil, p.lastErr
	}
	if err := p.applyPendingUpdates(); err != nil {
		return nil, p.fail2(syntaxErr(p.absolute(p.pos), "%v", err))
	}
	return p.buf, nil
}

func (p *Processor) fail2(err *Error) error {
	p.fail(err)
	return err
}

func findAttr(tok *token.Token, uri, local string) (int, bool) {
	for i, a := range tok.Attrs {
		if a.Key.URI == uri && a.Key.Local == local {
			return i, true
		}
	}
	return -1, false
}

// SetAttribute enqueues a lexical update that sets (or adds) an attribute
// on the opening tag currently held in CurrentToken. Only valid while the
// current token is an opening Tag. Setting an attribute in the xmlns
// namespace is unsupported.
func (p *Processor) SetAttribute(uri, local, value string) error {
	if p.lastErr != nil {
		return p.lastErr
	}
	if uri == XMLNSNamespaceURI {
		return p.fail2(unsupportedErr(p.absolute(p.pos), "set_attribute does not support the xmlns namespace"))
	}
	if p.current.Kind != token.Tag || p.current.IsCloser {
		return p.fail2(syntaxErr(p.absolute(p.pos), "set_attribute requires an opening tag"))
	}

	escaped := escapeAttrValue(value)
	if idx, ok := findAttr(&p.current, uri, local); ok {
		a := p.current.Attrs[idx]
		replacement := fmt.Sprintf(`"%s"`, escaped)
		p.updates.Enqueue(a.ValueStart-1, a.ValueLength+2, []byte(replacement))
		a.Value = value
		p.current.Attrs[idx] = a
		return nil
	}

	name := local
	if uri != "" {
		if prefix, ok := p.prefixForURI(uri); ok && prefix != "" {
			name = prefix + ":" + local
		}
	}
	insertAt := p.current.Start + len("<") + len(qualifiedTagName(p.current))
	text := fmt.Sprintf(` %s="%s"`, name, escaped)
	p.updates.Enqueue(insertAt, 0, []byte(text))

	p.current.Attrs = append(p.current.Attrs, token.Attr{
		Key:   token.AttrKey{URI: uri, Local: local},
		Value: value,
	})
	return nil
}

// RemoveAttribute enqueues a lexical update removing an attribute from the
// current opening tag. Adding then removing an attribute before the queue
// flushes cancels out (handled by GetUpdatedXML simply never having seen a
// net-zero effect, since the insert update is dropped here too).
func (p *Processor) RemoveAttribute(uri, local string) error {
	if p.lastErr != nil {
		return p.lastErr
	}
	if p.current.Kind != token.Tag || p.current.IsCloser {
		return p.fail2(syntaxErr(p.absolute(p.pos), "remove_attribute requires an opening tag"))
	}
	idx, ok := findAttr(&p.current, uri, local)
	if !ok {
		return nil
	}
	a := p.current.Attrs[idx]
	p.updates.Enqueue(a.Start, a.Length, nil)
	p.current.Attrs = append(p.current.Attrs[:idx], p.current.Attrs[idx+1:]...)
	return nil
}

func qualifiedTagName(tok token.Token) string {
	if tok.Prefix != "" {
		return tok.Prefix + ":" + tok.LocalName
	}
	return tok.LocalName
}

// prefixForURI finds a prefix already bound to uri in the current
// element's namespace scope, so set_attribute can emit a qualified name
// instead of inventing a fresh xmlns declaration.
func (p *Processor) prefixForURI(uri string) (string, bool) {
	if len(p.stack) == 0 {
		return "", false
	}
	scope := p.stack[len(p.stack)-1].namespacesInScope
	best, found := "", false
	for prefix, boundURI := range scope {
		if boundURI != uri {
			continue
		}
		if prefix == "" {
			continue // default namespace can't qualify an attribute name
		}
		if !found || prefix < best {
			best, found = prefix, true
		}
	}
	return best, found
}

// SetModifiableText replaces the modifiable text payload of the current
// Text/CData/Comment/ProcessingInstruction token, escaping it per the
// token's rules.
func (p *Processor) SetModifiableText(value string) error {
	if p.lastErr != nil {
		return p.lastErr
	}
	var escaped string
	switch p.current.Kind {
	case token.Text:
		escaped = escapeText(value)
	case token.CData:
		escaped = value
	case token.Comment:
		escaped = value
	case token.ProcessingInstruction:
		escaped = value
	default:
		return p.fail2(syntaxErr(p.absolute(p.pos), "set_modifiable_text requires a text-bearing token"))
	}
	p.updates.Enqueue(p.current.TextStart, p.current.TextLength, []byte(escaped))
	p.current.TextLength = len(escaped)
	return nil
}

func escapeText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}

func escapeAttrValue(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '"':
			out = append(out, "&quot;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
