package xmlproc

import (
	"testing"

	"github.com/ha1tch/wxrimport/token"
)

func TestBasicTagSequence(t *testing.T) {
	p, err := FromString([]byte(`<root><child id="1">text</child></root>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}

	type step struct {
		kind     token.Kind
		local    string
		isCloser bool
		text     string
	}
	want := []step{
		{kind: token.Tag, local: "root"},
		{kind: token.Tag, local: "child"},
		{kind: token.Text, text: "text"},
		{kind: token.Tag, local: "child", isCloser: true},
		{kind: token.Tag, local: "root", isCloser: true},
	}

	for i, w := range want {
		if !p.NextToken() {
			t.Fatalf("step %d: NextToken returned false, err=%v", i, p.LastError())
		}
		tok := p.CurrentToken()
		if tok.Kind != w.kind {
			t.Errorf("step %d: kind = %v, want %v", i, tok.Kind, w.kind)
		}
		if w.kind == token.Tag && (tok.LocalName != w.local || tok.IsCloser != w.isCloser) {
			t.Errorf("step %d: got local=%q closer=%v, want local=%q closer=%v",
				i, tok.LocalName, tok.IsCloser, w.local, w.isCloser)
		}
		if w.kind == token.Text {
			if text, ok := p.GetModifiableText(); !ok || text != w.text {
				t.Errorf("step %d: text = %q, want %q", i, text, w.text)
			}
		}
	}
	if p.NextToken() {
		t.Fatalf("expected no more tokens, got %v", p.CurrentToken())
	}
	if p.State() != Complete {
		t.Errorf("state = %v, want Complete", p.State())
	}
}

func TestNamespacedContentTag(t *testing.T) {
	p, err := FromString([]byte(`<wp:content xmlns:wp="w.org" id="a">t</wp:content>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextToken() {
		t.Fatalf("NextToken: %v", p.LastError())
	}
	tok := p.CurrentToken()
	if tok.NamespaceURI != "w.org" || tok.LocalName != "content" {
		t.Errorf("got ns=%q local=%q, want ns=%q local=%q", tok.NamespaceURI, tok.LocalName, "w.org", "content")
	}
	if v, ok := p.GetAttribute("", "id"); !ok || v != "a" {
		t.Errorf("GetAttribute(id) = %q, %v, want %q, true", v, ok, "a")
	}
}

func TestCDataRoundTripWithEscapedTerminator(t *testing.T) {
	p, err := FromString([]byte(`<x><![CDATA[a]]]]><![CDATA[>b]]></x>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextToken() || p.CurrentToken().Kind != token.Tag {
		t.Fatalf("expected opening tag")
	}

	var text string
	for p.NextToken() {
		tok := p.CurrentToken()
		if tok.Kind == token.CData {
			s, _ := p.GetModifiableText()
			text += s
			continue
		}
		break
	}
	if text != "a]]>b" {
		t.Errorf("concatenated CDATA = %q, want %q", text, "a]]>b")
	}
}

func TestCommentRejectsDoubleHyphen(t *testing.T) {
	p, err := FromString([]byte(`<!-- a -- b -->`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if p.NextToken() {
		t.Fatalf("expected failure, got %v", p.CurrentToken())
	}
	if p.LastError() == nil || p.LastError().Kind != Syntax {
		t.Errorf("LastError = %v, want Syntax", p.LastError())
	}
}

func TestNonXMLProcessingInstructionTargetIsUnsupported(t *testing.T) {
	p, err := FromString([]byte(`<a></a><?php echo 1 ?>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	for p.NextToken() {
	}
	if p.LastError() == nil || p.LastError().Kind != Unsupported {
		t.Errorf("LastError = %v, want Unsupported", p.LastError())
	}
}

func TestSecondXMLTargetedPIIsNotTreatedAsDeclaration(t *testing.T) {
	p, err := FromString([]byte(`<a></a><?xml version="1.0"?>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	for p.NextToken() {
		if p.CurrentToken().Kind == token.ProcessingInstruction {
			if p.CurrentToken().PITarget != "xml" {
				t.Errorf("PITarget = %q, want %q", p.CurrentToken().PITarget, "xml")
			}
			return
		}
	}
	t.Fatalf("expected a ProcessingInstruction token, last error: %v", p.LastError())
}

func TestUTF8BOMIsRejected(t *testing.T) {
	p, err := FromString([]byte("\xEF\xBB\xBF<a/>"), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if p.NextToken() {
		t.Fatalf("expected failure, got %v", p.CurrentToken())
	}
	if p.LastError() == nil || p.LastError().Kind != Syntax {
		t.Errorf("LastError = %v, want Syntax", p.LastError())
	}
}

func TestUTF16BOMIsUnsupported(t *testing.T) {
	p, err := FromString([]byte("\xFF\xFE<a/>"), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if p.NextToken() {
		t.Fatalf("expected failure, got %v", p.CurrentToken())
	}
	if p.LastError() == nil || p.LastError().Kind != Unsupported {
		t.Errorf("LastError = %v, want Unsupported", p.LastError())
	}
}

func TestSetAttributeRoundTrip(t *testing.T) {
	p, err := FromString([]byte(`<a id="1"></a>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextToken() {
		t.Fatalf("NextToken: %v", p.LastError())
	}
	if err := p.SetAttribute("", "id", "2"); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	out, err := p.GetUpdatedXML()
	if err != nil {
		t.Fatalf("GetUpdatedXML: %v", err)
	}
	if string(out) != `<a id="2"></a>` {
		t.Errorf("got %q, want %q", out, `<a id="2"></a>`)
	}
}

func TestCRLFNormalization(t *testing.T) {
	p, err := FromString([]byte("<a>line1\r\nline2\rline3</a>"), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextToken() {
		t.Fatalf("NextToken: %v", p.LastError())
	}
	if !p.NextToken() || p.CurrentToken().Kind != token.Text {
		t.Fatalf("expected text token")
	}
	text, ok := p.GetModifiableText()
	if !ok {
		t.Fatalf("GetModifiableText returned false")
	}
	want := "line1\nline2\nline3"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}
}

func TestIncompleteInputSuspendsAndResumes(t *testing.T) {
	p, err := ForStreaming([]byte(`<a`), nil)
	if err != nil {
		t.Fatalf("ForStreaming: %v", err)
	}
	if p.NextToken() {
		t.Fatalf("expected suspension, got %v", p.CurrentToken())
	}
	if p.State() != IncompleteInput {
		t.Fatalf("state = %v, want IncompleteInput", p.State())
	}
	p.AppendBytes([]byte(`/>`))
	if !p.NextToken() {
		t.Fatalf("NextToken after append: %v", p.LastError())
	}
	tok := p.CurrentToken()
	if tok.LocalName != "a" || !tok.IsEmpty {
		t.Errorf("got local=%q empty=%v, want local=a empty=true", tok.LocalName, tok.IsEmpty)
	}
}
