// Package lexedit implements a lexical-update queue: an ordered set of
// byte-range replacements staged against a document buffer and applied in
// a single sorted pass, shifting every live bookmark and the current parse
// offset atomically.
package lexedit

import (
	"errors"
	"sort"
)

// MaxQueueEntries is the queue length at which Full reports true. Reaching
// it does not flush anything: Enqueue keeps accepting updates, and the
// queue is applied only when a caller runs Apply.
const MaxQueueEntries = 1000

// ErrOverlapping is returned by Apply when two enqueued updates, or an
// update and a live bookmark, overlap in an unsupported way.
var ErrOverlapping = errors.New("lexedit: overlapping lexical updates")

// Update is a single staged byte-range replacement.
type Update struct {
	Start  int
	Length int
	Text   []byte
}

func (u Update) end() int { return u.Start + u.Length }

// Span is a live bookmark or offset tracked across Apply.
type Span struct {
	Start  int
	Length int
}

// Queue accumulates Updates and applies them in one sorted pass.
type Queue struct {
	updates []Update
}

// Len reports the number of pending updates.
func (q *Queue) Len() int { return len(q.updates) }

// Full reports whether the queue has reached MaxQueueEntries and must be
// flushed before another Enqueue.
func (q *Queue) Full() bool { return len(q.updates) >= MaxQueueEntries }

// Enqueue appends an update. Callers are responsible for flushing when Full
// returns true.
func (q *Queue) Enqueue(start, length int, text []byte) {
	q.updates = append(q.updates, Update{Start: start, Length: length, Text: text})
}

// Reset discards all pending updates without applying them, used when the
// processor must discard a partial flush after an error.
func (q *Queue) Reset() { q.updates = q.updates[:0] }

// BookmarkOutcome describes what happened to one bookmark after Apply.
type BookmarkOutcome struct {
	Name     string
	Released bool
	NewSpan  Span
}

// Apply sorts pending updates ascending by Start, rewrites buf into a fresh
// buffer, and returns it along with the updated bookmarks (keyed by the
// names passed in) and the new value of adjustPoint (typically
// bytes_already_parsed). Bookmarks wholly enclosed by a single update are
// released; bookmarks partially overlapping an update are an internal
// error (ErrOverlapping). The queue is cleared on success.
func Apply(buf []byte, q *Queue, bookmarkNames []string, bookmarks map[string]Span, adjustPoint int) ([]byte, map[string]Span, int, error) {
	if len(q.updates) == 0 {
		return buf, bookmarks, adjustPoint, nil
	}

	sorted := make([]Update, len(q.updates))
	copy(sorted, q.updates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].end() {
			return nil, nil, 0, ErrOverlapping
		}
	}

	newBookmarks := make(map[string]Span, len(bookmarks))
	for name, span := range bookmarks {
		newBookmarks[name] = span
	}

	out := make([]byte, 0, len(buf))
	cursor := 0
	newAdjust := adjustPoint

	for _, u := range sorted {
		if u.Start < cursor {
			return nil, nil, 0, ErrOverlapping
		}
		out = append(out, buf[cursor:u.Start]...)
		shift := len(u.Text) - u.Length
		writeOffset := len(out)
		out = append(out, u.Text...)

		for name, span := range newBookmarks {
			// Classify against the bookmark's original position: u is in
			// original-buffer coordinates, while span may already carry the
			// shifts of earlier updates.
			orig := bookmarks[name]
			switch {
			case orig.Start >= u.end():
				span.Start += shift
			case orig.Start+orig.Length <= u.Start:
				// entirely before; unaffected
			case orig.Start >= u.Start && orig.Start+orig.Length <= u.end():
				// wholly enclosed: released
				delete(newBookmarks, name)
				continue
			default:
				return nil, nil, 0, ErrOverlapping
			}
			newBookmarks[name] = span
		}
		_ = writeOffset

		if adjustPoint >= u.end() {
			newAdjust += shift
		} else if adjustPoint > u.Start {
			newAdjust = writeOffset
		}

		cursor = u.end()
	}
	out = append(out, buf[cursor:]...)

	q.Reset()
	return out, newBookmarks, newAdjust, nil
}
