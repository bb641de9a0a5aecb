package xmlproc

// AppendBytes adds more input to a streaming Processor, then flushes on
// budget: once the buffer exceeds its memory budget, pending lexical
// updates are applied and everything before the earliest of the current
// parse offset, the start of the in-flight token and the start of any live
// bookmark is dropped, shifting
// every retained offset and bookmark and accumulating the dropped count
// into the forgotten-bytes counter.
func (p *Processor) AppendBytes(data []byte) {
	p.buf = append(p.buf, data...)
	if p.state == IncompleteInput {
		p.state = Ready
	}
	if len(p.buf) > p.memoryBudget {
		p.flushProcessedXML()
	}
}

// InputFinished promotes a pending suspension to end-of-stream: any token
// still incomplete becomes a syntax error rather than remaining suspended.
func (p *Processor) InputFinished() {
	p.expectingMoreInput = false
	p.inputFinished = true
	if p.state == IncompleteInput {
		p.state = Ready
	}
}

// SetMemoryBudget overrides DefaultMemoryBudget; mainly for tests that
// want to exercise flush behavior without gigabyte-sized fixtures.
func (p *Processor) SetMemoryBudget(n int) { p.memoryBudget = n }

// flushProcessedXML drops the fully-parsed prefix of buf to bound memory
// use during long streaming parses.
func (p *Processor) flushProcessedXML() {
	if err := p.applyPendingUpdates(); err != nil {
		p.fail(syntaxErr(p.absolute(p.pos), "%v", err))
		return
	}
	dropTo := p.pos
	if p.tokenStart >= 0 && p.tokenStart < dropTo {
		dropTo = p.tokenStart
	}
	for _, span := range p.bookmarks {
		if span.Start < dropTo {
			dropTo = span.Start
		}
	}
	if dropTo <= 0 {
		return
	}

	p.buf = p.buf[dropTo:]
	p.pos -= dropTo
	if p.tokenStart >= 0 {
		p.tokenStart -= dropTo
	}
	for name, span := range p.bookmarks {
		span.Start -= dropTo
		p.bookmarks[name] = span
	}
	p.upstreamForgotten += dropTo
}
