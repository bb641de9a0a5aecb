package xmlproc

import "github.com/ha1tch/wxrimport/lexedit"

// SetBookmark anchors name to the current token's span. At most
// MaxBookmarks may be live at once.
func (p *Processor) SetBookmark(name string) error {
	if p.lastErr != nil {
		return p.lastErr
	}
	if _, exists := p.bookmarks[name]; !exists && len(p.bookmarks) >= MaxBookmarks {
		return p.fail2(&Error{Kind: ExceededMaxBookmarks, Offset: p.absolute(p.pos), Message: "more than 10 live bookmarks"})
	}
	p.bookmarks[name] = lexedit.Span{Start: p.current.Start, Length: p.current.Length}
	return nil
}

// HasBookmark reports whether name is currently live.
func (p *Processor) HasBookmark(name string) bool {
	_, ok := p.bookmarks[name]
	return ok
}

// ReleaseBookmark forgets name; a no-op if it was never set or already
// released (e.g. by a lexical update that wholly enclosed it).
func (p *Processor) ReleaseBookmark(name string) {
	delete(p.bookmarks, name)
}

// Seek rewinds (or fast-forwards) to the token bookmarked as name,
// reparsing forward from the start of the buffer if necessary. Bounded by
// MaxSeekOps per processor lifetime.
func (p *Processor) Seek(name string) error {
	if p.lastErr != nil {
		return p.lastErr
	}
	span, ok := p.bookmarks[name]
	if !ok {
		return syntaxErr(p.absolute(p.pos), "seek: no such bookmark %q", name)
	}
	if p.bookmarkSeek >= MaxSeekOps {
		return p.fail2(syntaxErr(p.absolute(p.pos), "seek: exceeded %d seek operations", MaxSeekOps))
	}
	p.bookmarkSeek++

	if p.tokenStart >= 0 && span.Start == p.current.Start {
		return nil
	}

	// Reparsing forward from zero is the only safe way to rebuild the
	// element stack and namespace scope for an arbitrary rewind target.
	p.pos = 0
	p.tokenStart = -1
	p.stack = p.stack[:0]
	p.context = InProlog
	p.sawDoctype = false
	p.sawRoot = false
	p.consumedAnything = false
	p.state = Ready

	// Parse until the token starting at (or spanning) span.Start is current.
	for p.pos <= span.Start {
		if !p.NextToken() {
			if p.lastErr != nil {
				return p.lastErr
			}
			break
		}
	}
	return nil
}
