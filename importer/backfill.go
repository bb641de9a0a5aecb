package importer

import "context"

// backfill runs once the whole document has streamed past: it resolves
// post parents, menu item targets, and featured images that referenced an
// entity appearing later in the export, then rewrites attachment URLs
// across every imported post's stored content.
func (c *Controller) backfill(ctx context.Context) error {
	c.backfillParents(ctx)
	c.backfillMenuItems(ctx)
	c.backfillFeaturedImages(ctx)
	return c.backfillURLRemap(ctx)
}

func (c *Controller) backfillParents(ctx context.Context) {
	for localID, wpParentID := range c.State.OrphanParents {
		parentLocalID, ok := c.State.ProcessedPosts[wpParentID]
		if !ok {
			c.Log.Warn("post parent never resolved", "local_id", localID, "wp_parent_id", wpParentID)
			continue
		}
		if err := c.Store.UpdatePostParent(ctx, localID, parentLocalID); err != nil {
			c.Log.Warn("backfill post parent failed", "local_id", localID, "err", err)
			continue
		}
		delete(c.State.OrphanParents, localID)
	}
}

func (c *Controller) backfillMenuItems(ctx context.Context) {
	var stillMissing []pendingMenuItem
	for _, item := range c.State.MissingMenuItems {
		resolvedID, ok := c.resolveMenuItemTarget(item.MenuItemType, item.ReferencedWPID)
		if !ok {
			stillMissing = append(stillMissing, item)
			continue
		}
		if err := c.Store.AddPostMeta(ctx, item.LocalPostID, "_menu_item_object_id", resolvedID); err != nil {
			c.Log.Warn("backfill menu item failed", "local_id", item.LocalPostID, "err", err)
			stillMissing = append(stillMissing, item)
		}
	}
	if len(stillMissing) > 0 {
		c.Log.Warn("menu items with unresolved targets", "count", len(stillMissing))
	}
	c.State.MissingMenuItems = stillMissing
}

func (c *Controller) backfillFeaturedImages(ctx context.Context) {
	for localID, wpAttachmentID := range c.State.FeaturedImageRefs {
		attachmentLocalID, ok := c.State.ProcessedPosts[wpAttachmentID]
		if !ok {
			continue
		}
		if err := c.Store.AddPostMeta(ctx, localID, "_thumbnail_id", attachmentLocalID); err != nil {
			c.Log.Warn("backfill featured image failed", "local_id", localID, "err", err)
			continue
		}
		delete(c.State.FeaturedImageRefs, localID)
	}
}

// backfillURLRemap rewrites every attachment URL captured in URLRemap
// (old URL -> local URL) across every imported post's content, longest
// key first so a narrower remap can't shadow a more specific one.
func (c *Controller) backfillURLRemap(ctx context.Context) error {
	if len(c.State.URLRemap) == 0 {
		return nil
	}
	keys := c.State.SortedURLRemapKeys()
	for _, localPostID := range c.State.ProcessedPosts {
		for _, find := range keys {
			replace := c.State.URLRemap[find]
			if err := c.Store.UpdatePostContentSubstitute(ctx, localPostID, find, replace); err != nil {
				return err
			}
		}
	}
	return nil
}
