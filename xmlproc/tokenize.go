package xmlproc

import (
	"bytes"
	"strings"

	"github.com/ha1tch/wxrimport/token"
	"github.com/ha1tch/wxrimport/xmlchar"
)

// NextToken advances the processor by one token. It returns false when
// the processor is suspended on incomplete input, has reached COMPLETE,
// or has raised an error; callers distinguish those cases via
// State()/LastError().
func (p *Processor) NextToken() bool {
	if p.lastErr != nil || p.state == Complete {
		return false
	}
	p.tokenStart = p.pos
	ok := p.parseNext()
	if !ok {
		p.tokenStart = -1
	}
	return ok
}

func (p *Processor) parseNext() bool {
	if !p.bomChecked {
		if handled, result := p.checkBOMOnce(); handled {
			return result
		}
	}
	if p.pos >= len(p.buf) {
		return p.handleEOF()
	}
	if p.buf[p.pos] != '<' {
		return p.scanText()
	}
	return p.scanMarkup()
}

// checkBOMOnce rejects a byte-order mark at the very start of the
// document: a UTF-8 BOM is a syntax error, a UTF-16 BOM is unsupported.
// handled reports whether parseNext should return immediately with
// result.
func (p *Processor) checkBOMOnce() (handled bool, result bool) {
	if p.pos != 0 || p.upstreamForgotten != 0 || p.consumedAnything {
		p.bomChecked = true
		return false, false
	}
	if len(p.buf) < 2 {
		if p.expectingMoreInput && !p.inputFinished {
			return true, p.suspendOrFail("truncated input")
		}
		p.bomChecked = true
		return false, false
	}
	switch {
	case len(p.buf) >= 3 && p.buf[0] == 0xEF && p.buf[1] == 0xBB && p.buf[2] == 0xBF:
		p.bomChecked = true
		return true, p.fail(syntaxErr(0, "a byte-order mark is not allowed at the start of the document"))
	case (p.buf[0] == 0xFF && p.buf[1] == 0xFE) || (p.buf[0] == 0xFE && p.buf[1] == 0xFF):
		p.bomChecked = true
		return true, p.fail(unsupportedErr(0, "UTF-16 input is not supported"))
	}
	p.bomChecked = true
	return false, false
}

func (p *Processor) handleEOF() bool {
	if p.context == InMisc {
		p.state = Complete
		return false
	}
	if p.expectingMoreInput && !p.inputFinished {
		p.state = IncompleteInput
		return false
	}
	return p.fail(syntaxErr(p.absolute(p.pos), "unexpected end of document"))
}

func (p *Processor) suspendOrFail(what string) bool {
	if p.expectingMoreInput && !p.inputFinished {
		p.state = IncompleteInput
		return false
	}
	return p.fail(syntaxErr(p.absolute(p.tokenStart), "unexpected end of document: %s", what))
}

func (p *Processor) scanText() bool {
	idx := bytes.IndexByte(p.buf[p.pos:], '<')
	var textEnd int
	if idx < 0 {
		if p.expectingMoreInput && !p.inputFinished {
			return p.suspendOrFail("truncated text node")
		}
		textEnd = len(p.buf)
	} else {
		textEnd = p.pos + idx
	}
	raw := p.buf[p.pos:textEnd]
	if p.context != InElement && !isAllWhitespace(raw) {
		return p.fail(syntaxErr(p.absolute(p.pos), "non-whitespace text is not allowed outside the root element"))
	}
	tok := token.Token{Kind: token.Text, Start: p.pos, Length: textEnd - p.pos, TextStart: p.pos, TextLength: textEnd - p.pos}
	p.pos = textEnd
	p.current = tok
	p.state = TextNode
	p.consumedAnything = true
	return true
}

func (p *Processor) scanMarkup() bool {
	if len(p.buf)-p.pos < 2 {
		return p.suspendOrFail("truncated tag")
	}
	switch p.buf[p.pos+1] {
	case '/':
		return p.scanClosingTag()
	case '!':
		return p.scanBang()
	case '?':
		return p.scanPI()
	default:
		return p.scanOpeningTag()
	}
}

func (p *Processor) scanBang() bool {
	rest := p.buf[p.pos:]
	switch {
	case bytes.HasPrefix(rest, []byte("<!--")):
		return p.scanComment()
	case bytes.HasPrefix(rest, []byte("<![CDATA[")):
		return p.scanCData()
	case bytes.HasPrefix(rest, []byte("<!DOCTYPE")):
		return p.scanDoctype()
	}
	if len(rest) < len("<!DOCTYPE") {
		return p.suspendOrFail("truncated '<!' construct")
	}
	return p.fail(syntaxErr(p.absolute(p.pos), "unrecognized '<!' construct"))
}

func (p *Processor) scanComment() bool {
	start := p.pos
	contentStart := start + 4
	i := contentStart
	for {
		idx := bytes.Index(p.buf[i:], []byte("--"))
		if idx < 0 {
			return p.suspendOrFail("truncated comment")
		}
		dashAt := i + idx
		if dashAt+2 >= len(p.buf) {
			return p.suspendOrFail("truncated comment")
		}
		if p.buf[dashAt+2] == '>' {
			end := dashAt + 3
			tok := token.Token{Kind: token.Comment, Start: start, Length: end - start, TextStart: contentStart, TextLength: dashAt - contentStart}
			p.pos = end
			p.current = tok
			p.state = CommentState
			p.consumedAnything = true
			return true
		}
		return p.fail(syntaxErr(p.absolute(dashAt), "'--' is not allowed inside a comment"))
	}
}

func (p *Processor) scanCData() bool {
	start := p.pos
	contentStart := start + 9
	idx := bytes.Index(p.buf[contentStart:], []byte("]]>"))
	if idx < 0 {
		return p.suspendOrFail("truncated CDATA section")
	}
	contentEnd := contentStart + idx
	end := contentEnd + 3
	tok := token.Token{Kind: token.CData, Start: start, Length: end - start, TextStart: contentStart, TextLength: contentEnd - contentStart}
	p.pos = end
	p.current = tok
	p.state = CDataNode
	p.consumedAnything = true
	return true
}

func (p *Processor) scanDoctype() bool {
	start := p.pos
	if p.context != InProlog {
		return p.fail(syntaxErr(p.absolute(start), "DOCTYPE is only allowed in the prolog"))
	}
	if p.sawDoctype {
		return p.fail(syntaxErr(p.absolute(start), "a document may contain at most one DOCTYPE"))
	}
	pos := p.skipWhitespaceFrom(start + 9)
	if pos >= len(p.buf) {
		return p.suspendOrFail("truncated DOCTYPE")
	}
	name, pos2, ok := p.readNameAt(pos)
	if !ok {
		return p.suspendOrFail("truncated DOCTYPE name")
	}
	if name == "" {
		return p.fail(syntaxErr(p.absolute(pos), "expected a name after DOCTYPE"))
	}
	pos = pos2
	info := token.DoctypeInfo{Name: name}

	pos = p.skipWhitespaceFrom(pos)
	switch {
	case bytes.HasPrefix(p.buf[pos:], []byte("SYSTEM")):
		lit, newPos, ok2 := p.readQuotedLiteral(pos + 6)
		if !ok2 {
			return p.suspendOrFail("truncated SYSTEM literal")
		}
		info.SystemID, info.HasExtID = lit, true
		pos = newPos
	case bytes.HasPrefix(p.buf[pos:], []byte("PUBLIC")):
		pub, p2, ok2 := p.readQuotedLiteral(pos + 6)
		if !ok2 {
			return p.suspendOrFail("truncated PUBLIC literal")
		}
		sys, p3, ok3 := p.readQuotedLiteral(p2)
		if !ok3 {
			return p.suspendOrFail("truncated SYSTEM literal")
		}
		info.PublicID, info.SystemID = pub, sys
		info.HasExtID, info.IsPublicID = true, true
		pos = p3
	}
	pos = p.skipWhitespaceFrom(pos)
	if pos >= len(p.buf) {
		return p.suspendOrFail("truncated DOCTYPE")
	}
	if p.buf[pos] == '[' {
		return p.fail(unsupportedErr(p.absolute(pos), "inline DOCTYPE internal subsets are not supported"))
	}
	if p.buf[pos] != '>' {
		return p.fail(syntaxErr(p.absolute(pos), "expected '>' to close DOCTYPE"))
	}
	end := pos + 1
	tok := token.Token{Kind: token.Doctype, Start: start, Length: end - start, Doctype: info}
	p.sawDoctype = true
	p.pos = end
	p.current = tok
	p.state = DoctypeNode
	p.consumedAnything = true
	return true
}

func (p *Processor) scanPI() bool {
	start := p.pos
	target, pos, ok := p.readNameAt(start + 2)
	if !ok {
		return p.suspendOrFail("truncated processing instruction")
	}
	if target == "" {
		return p.fail(syntaxErr(p.absolute(start), "expected a target after '<?'"))
	}

	idx := bytes.Index(p.buf[pos:], []byte("?>"))
	if idx < 0 {
		return p.suspendOrFail("truncated processing instruction")
	}
	end := pos + idx
	contentStart := p.skipWhitespaceFrom(pos)
	if contentStart > end {
		contentStart = end
	}

	isDeclPosition := p.absolute(start) == 0 && !p.consumedAnything
	if isDeclPosition && target == "xml" {
		return p.finishXMLDecl(start, contentStart, end)
	}
	if !strings.EqualFold(target, "xml") {
		return p.fail(unsupportedErr(p.absolute(start), "processing instruction target %q is not supported", target))
	}

	tok := token.Token{Kind: token.ProcessingInstruction, Start: start, Length: end + 2 - start, PITarget: target, TextStart: contentStart, TextLength: end - contentStart}
	p.pos = end + 2
	p.current = tok
	p.state = PINode
	p.consumedAnything = true
	return true
}

func (p *Processor) finishXMLDecl(start, contentStart, end int) bool {
	content := string(p.buf[contentStart:end])
	attrs, err := parsePseudoAttrs(content)
	if err != nil {
		return p.fail(syntaxErr(p.absolute(contentStart), "%v", err))
	}
	if v, ok := attrs["version"]; ok && v != "1.0" {
		return p.fail(unsupportedErr(p.absolute(contentStart), "unsupported XML version %q", v))
	}
	if enc, ok := attrs["encoding"]; ok && !strings.EqualFold(enc, "utf-8") {
		return p.fail(unsupportedErr(p.absolute(contentStart), "unsupported encoding %q, only UTF-8 is accepted", enc))
	}
	if sa, ok := attrs["standalone"]; ok && sa == "no" {
		return p.fail(unsupportedErr(p.absolute(contentStart), `standalone="no" is not supported`))
	}
	tok := token.Token{Kind: token.XMLDeclaration, Start: start, Length: end + 2 - start, TextStart: contentStart, TextLength: end - contentStart}
	p.pos = end + 2
	p.current = tok
	p.state = XMLDeclarationState
	p.consumedAnything = true
	return true
}

type rawAttr struct {
	prefix, local, value    string
	start, length           int
	valueStart, valueLength int
}

func (p *Processor) scanClosingTag() bool {
	start := p.pos
	name, pos, ok := p.readNameAt(start + 2)
	if !ok {
		return p.suspendOrFail("truncated closing tag")
	}
	if name == "" {
		return p.fail(syntaxErr(p.absolute(start), "expected an element name after '</'"))
	}
	pos = p.skipWhitespaceFrom(pos)
	if pos >= len(p.buf) {
		return p.suspendOrFail("truncated closing tag")
	}
	if p.buf[pos] != '>' {
		return p.fail(syntaxErr(p.absolute(pos), "expected '>' to close tag"))
	}
	end := pos + 1

	prefix, local, errMsg := splitQName(name)
	if errMsg != "" {
		return p.fail(syntaxErr(p.absolute(start), "%s", errMsg))
	}
	if len(p.stack) == 0 {
		return p.fail(syntaxErr(p.absolute(start), "closing tag </%s> with no open element", name))
	}
	top := p.stack[len(p.stack)-1]
	if top.localName != local || top.namespacePrefix != prefix {
		return p.fail(syntaxErr(p.absolute(start), "mismatched closing tag </%s>, expected </%s>", name, qualifiedElementName(top)))
	}

	tok := token.Token{Kind: token.Tag, Start: start, Length: end - start, NamespaceURI: top.namespaceURI, LocalName: top.localName, Prefix: top.namespacePrefix, IsCloser: true}
	p.stack = p.stack[:len(p.stack)-1]
	if len(p.stack) == 0 {
		p.context = InMisc
	}
	p.pos = end
	p.current = tok
	p.state = MatchedTag
	p.consumedAnything = true
	return true
}

func (p *Processor) scanOpeningTag() bool {
	start := p.pos
	name, pos, ok := p.readNameAt(start + 1)
	if !ok {
		return p.suspendOrFail("truncated tag name")
	}
	if name == "" {
		return p.fail(syntaxErr(p.absolute(start), "expected an element name after '<'"))
	}
	prefix, local, errMsg := splitQName(name)
	if errMsg != "" {
		return p.fail(syntaxErr(p.absolute(start), "%s", errMsg))
	}

	var rawAttrs []rawAttr
	seenRaw := map[string]bool{}

	for {
		wsStart := pos
		pos = p.skipWhitespaceFrom(pos)
		hadWS := pos > wsStart
		if pos >= len(p.buf) {
			return p.suspendOrFail("truncated tag")
		}
		if p.buf[pos] == '/' || p.buf[pos] == '>' {
			break
		}
		if !hadWS {
			return p.fail(syntaxErr(p.absolute(pos), "expected whitespace before attribute"))
		}
		attrStart := pos
		aname, apos, aok := p.readNameAt(pos)
		if !aok {
			return p.suspendOrFail("truncated attribute name")
		}
		if aname == "" {
			return p.fail(syntaxErr(p.absolute(pos), "expected an attribute name"))
		}
		aprefix, alocal, aerr := splitQName(aname)
		if aerr != "" {
			return p.fail(syntaxErr(p.absolute(attrStart), "%s", aerr))
		}
		pos = apos
		pos = p.skipWhitespaceFrom(pos)
		if pos >= len(p.buf) {
			return p.suspendOrFail("truncated attribute")
		}
		if p.buf[pos] != '=' {
			return p.fail(syntaxErr(p.absolute(pos), "expected '=' after attribute name %q", aname))
		}
		pos = p.skipWhitespaceFrom(pos + 1)
		if pos >= len(p.buf) {
			return p.suspendOrFail("truncated attribute value")
		}
		quote := p.buf[pos]
		if quote != '"' && quote != '\'' {
			return p.fail(syntaxErr(p.absolute(pos), "attribute value must be quoted"))
		}
		pos++
		valStart := pos
		for {
			if pos >= len(p.buf) {
				return p.suspendOrFail("truncated attribute value")
			}
			if p.buf[pos] == quote {
				break
			}
			if p.buf[pos] == '<' {
				return p.fail(syntaxErr(p.absolute(pos), "'<' is not allowed in an attribute value"))
			}
			pos++
		}
		valEnd := pos
		pos++
		key := aprefix + ":" + alocal
		if seenRaw[key] {
			return p.fail(syntaxErr(p.absolute(attrStart), "duplicate attribute %q", aname))
		}
		seenRaw[key] = true
		rawAttrs = append(rawAttrs, rawAttr{
			prefix: aprefix, local: alocal, value: string(p.buf[valStart:valEnd]),
			start: attrStart, length: pos - attrStart,
			valueStart: valStart, valueLength: valEnd - valStart,
		})
	}

	isEmpty := false
	if p.buf[pos] == '/' {
		isEmpty = true
		pos++
		if pos >= len(p.buf) {
			return p.suspendOrFail("truncated self-closing tag")
		}
	}
	if p.buf[pos] != '>' {
		return p.fail(syntaxErr(p.absolute(pos), "expected '>' to close tag"))
	}
	end := pos + 1

	var parentScope map[string]string
	if len(p.stack) > 0 {
		parentScope = p.stack[len(p.stack)-1].namespacesInScope
	} else {
		parentScope = p.documentNamespaces
	}
	scope := copyNamespaces(parentScope)
	for _, a := range rawAttrs {
		switch {
		case a.prefix == "" && a.local == "xmlns":
			if a.value == "" {
				delete(scope, "")
			} else {
				scope[""] = a.value
			}
		case a.prefix == "xmlns":
			if a.local == "xml" || a.local == "xmlns" {
				return p.fail(syntaxErr(p.absolute(a.start), "the %q prefix may not be redeclared", a.local))
			}
			if a.value == "" {
				delete(scope, a.local)
			} else {
				scope[a.local] = a.value
			}
		}
	}

	var elemURI string
	if prefix == "" {
		elemURI = scope[""]
	} else {
		uri, ok := scope[prefix]
		if !ok {
			return p.fail(syntaxErr(p.absolute(start), "unresolvable namespace prefix %q", prefix))
		}
		elemURI = uri
	}

	tokAttrs := make([]token.Attr, 0, len(rawAttrs))
	seenQName := map[string]bool{}
	for _, a := range rawAttrs {
		if (a.prefix == "" && a.local == "xmlns") || a.prefix == "xmlns" {
			continue
		}
		var auri string
		if a.prefix != "" {
			uri, ok := scope[a.prefix]
			if !ok {
				return p.fail(syntaxErr(p.absolute(a.start), "unresolvable namespace prefix %q", a.prefix))
			}
			auri = uri
		}
		qkey := auri + "|" + a.local
		if seenQName[qkey] {
			return p.fail(syntaxErr(p.absolute(a.start), "duplicate attribute {%s}%s after namespace resolution", auri, a.local))
		}
		seenQName[qkey] = true
		tokAttrs = append(tokAttrs, token.Attr{
			Key: token.AttrKey{URI: auri, Local: a.local}, Prefix: a.prefix, Value: a.value,
			Start: a.start, Length: a.length, ValueStart: a.valueStart, ValueLength: a.valueLength,
		})
	}

	el := element{localName: local, namespacePrefix: prefix, namespaceURI: elemURI, namespacesInScope: scope}
	tok := token.Token{
		Kind: token.Tag, Start: start, Length: end - start,
		NamespaceURI: elemURI, LocalName: local, Prefix: prefix,
		IsEmpty: isEmpty, Attrs: tokAttrs,
	}

	p.onTagOpened(isEmpty, el)
	p.pos = end
	p.current = tok
	p.state = MatchedTag
	p.consumedAnything = true
	return true
}

func (p *Processor) onTagOpened(isEmpty bool, el element) {
	wasRoot := len(p.stack) == 0
	if wasRoot {
		p.context = InElement
		p.sawRoot = true
	}
	if !isEmpty {
		p.stack = append(p.stack, el)
		return
	}
	if wasRoot {
		p.context = InMisc
	}
}

// readNameAt reads an XML Name starting at pos. ok is false only when the
// buffer ends before a NameStartChar/NameChar boundary can be determined
// and more input is still expected; an empty returned name with ok=true
// means "no Name here", which callers treat as a syntax error.
func (p *Processor) readNameAt(pos int) (string, int, bool) {
	i := pos
	first := true
	for {
		if i >= len(p.buf) {
			if p.expectingMoreInput && !p.inputFinished {
				return "", 0, false
			}
			break
		}
		cp, n := xmlchar.CodepointAt(p.buf, i)
		if n == 0 {
			break
		}
		if first {
			if !xmlchar.IsNameStartChar(cp) {
				break
			}
			first = false
		} else if !xmlchar.IsNameChar(cp) {
			break
		}
		i += n
	}
	return string(p.buf[pos:i]), i, true
}

func (p *Processor) skipWhitespaceFrom(pos int) int {
	for pos < len(p.buf) {
		cp, n := xmlchar.CodepointAt(p.buf, pos)
		if n == 0 || !xmlchar.IsWhitespace(cp) {
			break
		}
		pos += n
	}
	return pos
}

func (p *Processor) readQuotedLiteral(pos int) (string, int, bool) {
	pos = p.skipWhitespaceFrom(pos)
	if pos >= len(p.buf) {
		return "", 0, false
	}
	quote := p.buf[pos]
	if quote != '"' && quote != '\'' {
		return "", pos, true
	}
	pos++
	valStart := pos
	for {
		if pos >= len(p.buf) {
			return "", 0, false
		}
		if p.buf[pos] == quote {
			break
		}
		pos++
	}
	val := string(p.buf[valStart:pos])
	return val, pos + 1, true
}

func splitQName(name string) (prefix, local, errMsg string) {
	idx := strings.IndexByte(name, ':')
	if idx < 0 {
		return "", name, ""
	}
	prefix, local = name[:idx], name[idx+1:]
	if prefix == "" {
		return "", "", "a zero-length namespace prefix is not allowed"
	}
	if local == "" {
		return "", "", "expected a local name after the namespace prefix"
	}
	return prefix, local, ""
}

func qualifiedElementName(el element) string {
	if el.namespacePrefix == "" {
		return el.localName
	}
	return el.namespacePrefix + ":" + el.localName
}

func isAllWhitespace(b []byte) bool {
	for i := 0; i < len(b); i++ {
		cp, n := xmlchar.CodepointAt(b, i)
		if n == 0 || !xmlchar.IsWhitespace(cp) {
			return false
		}
		i += n - 1
	}
	return true
}

// parsePseudoAttrs parses the `name="value"` pairs inside an XML
// declaration, e.g. `version="1.0" encoding="UTF-8"`.
func parsePseudoAttrs(content string) (map[string]string, error) {
	out := map[string]string{}
	i := 0
	for i < len(content) {
		for i < len(content) && (content[i] == ' ' || content[i] == '\t' || content[i] == '\n' || content[i] == '\r') {
			i++
		}
		if i >= len(content) {
			break
		}
		start := i
		for i < len(content) && content[i] != '=' && content[i] != ' ' {
			i++
		}
		name := content[start:i]
		for i < len(content) && content[i] != '=' {
			i++
		}
		if i >= len(content) {
			return nil, errBadPseudoAttrs
		}
		i++ // consume '='
		for i < len(content) && content[i] == ' ' {
			i++
		}
		if i >= len(content) || (content[i] != '"' && content[i] != '\'') {
			return nil, errBadPseudoAttrs
		}
		quote := content[i]
		i++
		vs := i
		for i < len(content) && content[i] != quote {
			i++
		}
		if i >= len(content) {
			return nil, errBadPseudoAttrs
		}
		out[name] = content[vs:i]
		i++
	}
	return out, nil
}

var errBadPseudoAttrs = syntaxErr(0, "malformed XML declaration attributes")
