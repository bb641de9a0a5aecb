package xmlproc

import "testing"

func TestNextTagAny(t *testing.T) {
	p, err := FromString([]byte(`<a>x</a><b/>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextTagAny() || p.GetTagLocalName() != "a" {
		t.Fatalf("first NextTagAny: local=%q", p.GetTagLocalName())
	}
	if !p.NextTagAny() || p.GetTagLocalName() != "b" {
		t.Fatalf("second NextTagAny: local=%q", p.GetTagLocalName())
	}
	if p.NextTagAny() {
		t.Fatalf("expected no further opening tags, got %q", p.GetTagLocalName())
	}
}

func TestNextTagMatchesEmptyNamespaceOnly(t *testing.T) {
	p, err := FromString([]byte(`<wp:item xmlns:wp="w.org"><item/></wp:item>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextTag("item") {
		t.Fatalf("NextTag(item) found nothing")
	}
	if ns := p.GetTagNamespace(); ns != "" {
		t.Fatalf("NextTag matched a namespaced element: ns=%q", ns)
	}
}

func TestNextTagNSWildcards(t *testing.T) {
	p, err := FromString([]byte(`<wp:author xmlns:wp="w.org"/>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextTagNS("*", "author") {
		t.Fatalf("NextTagNS with wildcard namespace found nothing")
	}

	p, err = FromString([]byte(`<wp:author xmlns:wp="w.org"/>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if !p.NextTagNS("w.org", "*") {
		t.Fatalf("NextTagNS with wildcard local name found nothing")
	}

	p, err = FromString([]byte(`<wp:author xmlns:wp="w.org"/>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if p.NextTagNS("other.org", "author") {
		t.Fatalf("NextTagNS matched the wrong namespace")
	}
}

func TestNextTagBreadcrumbsMatchOffset(t *testing.T) {
	doc := `<channel><item><title/></item><item><title/></item></channel>`
	p, err := FromString([]byte(doc), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	trail := []Breadcrumb{{Namespace: "*", Local: "channel"}, {Namespace: "*", Local: "item"}}

	if !p.NextTagBreadcrumbs(trail, 0) {
		t.Fatalf("match_offset 0: no match")
	}
	if !p.MatchesBreadcrumbs(trail) {
		t.Fatalf("match_offset 0: stack does not match trail after landing")
	}

	if !p.NextTagBreadcrumbs(trail, 0) {
		t.Fatalf("second item: no match")
	}
}

func TestNextTagBreadcrumbsExhausted(t *testing.T) {
	p, err := FromString([]byte(`<channel><item/></channel>`), nil)
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	trail := []Breadcrumb{{Namespace: "*", Local: "channel"}, {Namespace: "*", Local: "item"}}
	if p.NextTagBreadcrumbs(trail, 1) {
		t.Fatalf("expected match_offset 1 to exhaust the single match")
	}
}
