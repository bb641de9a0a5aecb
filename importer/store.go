// Package importer drives a WXR entity stream (see package wxr) through an
// idempotent import: authors and terms land first, posts and their meta and
// comments follow, and a final back-fill pass resolves anything that
// referenced an entity not yet seen (parents, menu items, featured images).
package importer

import (
	"context"

	"github.com/ha1tch/wxrimport/wxr"
)

// Store is the persistence boundary the controller drives. A concrete
// implementation (store/sqlite) owns ID generation, uniqueness checks, and
// the actual writes; the controller only ever calls through this interface,
// so it never assumes a particular backend.
type Store interface {
	// FindOrCreateUser resolves a wp:author record to a local user ID,
	// creating one if no user with a matching login exists.
	FindOrCreateUser(ctx context.Context, author wxr.Author) (localID string, err error)

	// FindUser looks up a local user by login without creating one.
	FindUser(ctx context.Context, login string) (localID string, exists bool, err error)

	// TermExists reports whether a term with the given taxonomy+slug
	// already exists, and its local ID if so.
	TermExists(ctx context.Context, taxonomy, slug string) (localID string, exists bool, err error)
	InsertTerm(ctx context.Context, term wxr.Term) (localID string, err error)
	AddTermMeta(ctx context.Context, localTermID, key, value string) error

	// PostExists reports whether a post with the given title and date
	// already exists, and its local ID if so — the same (title, '', date)
	// duplicate check WordPress's own importer runs, so a re-slugged post
	// is still recognized as the one already imported.
	PostExists(ctx context.Context, title, date string) (localID string, exists bool, err error)
	InsertPost(ctx context.Context, post wxr.Post, authorLocalID string) (localID string, err error)
	AddPostMeta(ctx context.Context, localPostID, key, value string) error
	SetPostTerms(ctx context.Context, localPostID string, localTermIDs []string) error
	StickPost(ctx context.Context, localPostID string) error
	UpdatePostParent(ctx context.Context, localPostID, parentLocalID string) error

	// UpdatePostContentSubstitute performs a literal substring replacement
	// across a post's stored content and excerpt, used for URL rewriting
	// during back-fill.
	UpdatePostContentSubstitute(ctx context.Context, localPostID, find, replace string) error

	InsertComment(ctx context.Context, comment wxr.Comment, localPostID string) (localID string, err error)
	AddCommentMeta(ctx context.Context, localCommentID, key, value string) error
}
