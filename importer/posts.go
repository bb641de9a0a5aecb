package importer

import (
	"context"

	"github.com/ha1tch/wxrimport/wxr"
)

// postMetaSkip lists wp:postmeta keys that describe local editor state in
// the source site and carry no meaning after import.
var postMetaSkip = map[string]bool{
	"_edit_lock":              true,
	"_wp_attached_file":       true,
	"_wp_attachment_metadata": true,
}

func (c *Controller) importPost(ctx context.Context, post wxr.Post) error {
	if post.PostType == "" {
		c.Log.Warn("skipping post with unknown type", "wp_post_id", post.PostID, "title", post.Title)
		c.dropPendingPost(post.PostID)
		return nil
	}
	if post.Status == "auto-draft" {
		c.Log.Info("skipping auto-draft post", "wp_post_id", post.PostID)
		c.dropPendingPost(post.PostID)
		return nil
	}

	if localID, ok := c.State.ProcessedPosts[post.PostID]; ok {
		return c.flushPostChildren(ctx, post.PostID, localID)
	}

	existingID, exists, err := c.Store.PostExists(ctx, post.Title, post.PostDate)
	if err != nil {
		return err
	}

	var localID string
	if exists {
		localID = existingID
	} else {
		authorLocalID, ok := c.State.ProcessedAuthorsByLogin[post.Creator]
		if !ok {
			authorLocalID = c.CurrentUserID
		}
		localID, err = c.Store.InsertPost(ctx, post, authorLocalID)
		if err != nil {
			return err
		}
		if post.IsSticky {
			if err := c.Store.StickPost(ctx, localID); err != nil {
				return err
			}
		}
		if post.PostType == "nav_menu_item" {
			c.importMenuItem(ctx, localID, post)
		}
	}

	// Parent and term resolution run on both the fresh-insert and the
	// detected-duplicate paths: a re-import must still settle any parent
	// link or attachment URL remap a prior run left incomplete, so
	// double-imports stay idempotent.
	c.linkParent(ctx, localID, post.PostParent)
	if termIDs := c.resolvePostTerms(post.Terms); len(termIDs) > 0 {
		if err := c.Store.SetPostTerms(ctx, localID, termIDs); err != nil {
			return err
		}
	}
	if post.PostType == "attachment" {
		// Populated whether or not the post already existed: a prior run
		// may have created it without ever recording url_remap.
		c.processAttachment(ctx, post, attachedFilePath(c.pendingPostMeta[post.PostID]))
	}

	c.State.ProcessedPosts[post.PostID] = localID
	c.Log.Info("imported post", "wp_post_id", post.PostID, "local_id", localID, "title", post.Title)
	return c.flushPostChildren(ctx, post.PostID, localID)
}

// dropPendingPost discards postmeta, comments, and commentmeta buffered for
// a post that import skips outright: with no local post ID to attach them
// to, there is nothing to flush them onto.
func (c *Controller) dropPendingPost(wpPostID string) {
	delete(c.pendingPostMeta, wpPostID)
	delete(c.pendingComments, wpPostID)
	delete(c.pendingCommentMeta, wpPostID)
}

// resolvePostTerms maps a post's <category domain="..."> entries to local
// term IDs, dropping any whose taxonomy/slug hasn't been imported (a
// malformed export referencing a term never declared in wp:category).
func (c *Controller) resolvePostTerms(terms []wxr.PostTerm) []string {
	var out []string
	for _, t := range terms {
		if localID, ok := c.State.ProcessedTerms[termKey(t.Domain, t.Slug)]; ok {
			out = append(out, localID)
		}
	}
	return out
}

func (c *Controller) linkParent(ctx context.Context, localID, wpParentID string) {
	if wpParentID == "" || wpParentID == "0" {
		return
	}
	if parentLocalID, ok := c.State.ProcessedPosts[wpParentID]; ok {
		if err := c.Store.UpdatePostParent(ctx, localID, parentLocalID); err != nil {
			c.Log.Warn("set post parent failed", "local_id", localID, "err", err)
		}
		return
	}
	c.State.OrphanParents[localID] = wpParentID
}

func (c *Controller) flushPostChildren(ctx context.Context, wpPostID, localID string) error {
	for _, m := range c.pendingPostMeta[wpPostID] {
		if postMetaSkip[m.Key] {
			continue
		}
		if m.Key == "_thumbnail_id" {
			c.State.FeaturedImageRefs[localID] = m.Value
			continue
		}
		value := m.Value
		if m.Key == "_edit_last" {
			if localAuthorID, ok := c.State.ProcessedAuthors[m.Value]; ok {
				value = localAuthorID
			}
		}
		if err := c.Store.AddPostMeta(ctx, localID, m.Key, value); err != nil {
			return err
		}
	}
	delete(c.pendingPostMeta, wpPostID)

	for _, cm := range c.pendingComments[wpPostID] {
		localCommentID, err := c.Store.InsertComment(ctx, cm, localID)
		if err != nil {
			return err
		}
		for _, meta := range c.pendingCommentMeta[wpPostID] {
			if meta.CommentID != cm.CommentID {
				continue
			}
			if err := c.Store.AddCommentMeta(ctx, localCommentID, meta.Key, meta.Value); err != nil {
				return err
			}
		}
	}
	delete(c.pendingComments, wpPostID)
	delete(c.pendingCommentMeta, wpPostID)
	return nil
}
