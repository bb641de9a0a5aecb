package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ha1tch/wxrimport/wxr"
)

// Controller drives a wxr.Reader through a Store and AttachmentFetcher,
// one entity at a time, maintaining ImportState for idempotency and
// deferred back-fill.
//
// PostMeta, Comment, and CommentMeta entities arrive from the reader
// before the Post entity that owns them (they close before the enclosing
// <item> does), so the controller buffers them by the WXR wp:post_id and
// flushes the buffer once the owning post has actually been inserted.
type Controller struct {
	Store   Store
	Fetcher AttachmentFetcher
	State   *ImportState
	Log     *slog.Logger
	SiteOpt wxr.SiteOption

	// UploadsDir is where fetched attachments are written. A nil Fetcher or
	// an empty UploadsDir both disable attachment fetching outright.
	UploadsDir string

	// AuthorMappingStrategy selects how wp:author records and post
	// authorship resolve to local users: AuthorMappingCreate (default),
	// AuthorMappingMatchExisting, or AuthorMappingCurrentUser.
	AuthorMappingStrategy string

	// CurrentUserID is the local user ID substituted for an author that
	// can't otherwise be resolved, per AuthorMappingStrategy.
	CurrentUserID string

	pendingPostMeta    map[string][]wxr.PostMeta
	pendingComments    map[string][]wxr.Comment
	pendingCommentMeta map[string][]wxr.CommentMeta

	// OnEntity, if set, is called once per entity dispatched; a CLI front
	// end uses it to drive a progress bar.
	OnEntity func(wxr.Entity)
}

// NewController wires a Store, an optional AttachmentFetcher (nil disables
// attachment handling), and state to resume from.
func NewController(store Store, fetcher AttachmentFetcher, state *ImportState, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		Store:              store,
		Fetcher:            fetcher,
		State:              state,
		Log:                log,
		pendingPostMeta:    map[string][]wxr.PostMeta{},
		pendingComments:    map[string][]wxr.Comment{},
		pendingCommentMeta: map[string][]wxr.CommentMeta{},
	}
}

// Run consumes every entity the reader produces, in document order, and
// returns once the stream cleanly ends. A final back-fill pass resolves
// anything that referenced an entity not yet seen: orphaned post parents,
// forward-referencing menu items, and attachment URL rewrites.
func (c *Controller) Run(ctx context.Context, reader *wxr.Reader) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entity, more, err := reader.Next()
		if err != nil {
			if err == wxr.ErrNeedMore {
				return err
			}
			return fmt.Errorf("%w: %w", ErrWXRParse, err)
		}
		if !more {
			break
		}
		if err := c.dispatch(ctx, entity); err != nil {
			return err
		}
	}
	return c.backfill(ctx)
}

func (c *Controller) dispatch(ctx context.Context, e wxr.Entity) error {
	if c.OnEntity != nil {
		c.OnEntity(e)
	}
	switch e.Kind {
	case wxr.SiteOptionKind:
		c.SiteOpt = e.SiteOption
		c.Log.Info("site options", "wxr_version", e.SiteOption.WXRVersion)
	case wxr.AuthorKind:
		return c.importAuthor(ctx, e.Author)
	case wxr.CategoryKind, wxr.TagKind, wxr.TermKind:
		return c.importTerm(ctx, e.Term)
	case wxr.TermMetaKind:
		return c.importTermMeta(ctx, e.TermMeta)
	case wxr.PostMetaKind:
		c.pendingPostMeta[e.PostMeta.PostID] = append(c.pendingPostMeta[e.PostMeta.PostID], e.PostMeta)
	case wxr.CommentKind:
		c.pendingComments[e.Comment.PostID] = append(c.pendingComments[e.Comment.PostID], e.Comment)
	case wxr.CommentMetaKind:
		c.pendingCommentMeta[e.CommentMeta.PostID] = append(c.pendingCommentMeta[e.CommentMeta.PostID], e.CommentMeta)
	case wxr.PostKind:
		return c.importPost(ctx, e.Post)
	}
	return nil
}
