package importer

import (
	"context"

	"github.com/ha1tch/wxrimport/wxr"
)

// importMenuItem attempts to resolve a nav_menu_item's target (a post,
// page, or taxonomy term) to a local ID immediately. If the referenced
// object hasn't streamed past yet, the item is queued for a retry during
// back-fill.
func (c *Controller) importMenuItem(ctx context.Context, localID string, post wxr.Post) {
	if resolvedID, ok := c.resolveMenuItemTarget(post.MenuItemType, post.MenuItemObjectID); ok {
		if err := c.Store.AddPostMeta(ctx, localID, "_menu_item_object_id", resolvedID); err != nil {
			c.Log.Warn("set menu item target failed", "local_id", localID, "err", err)
		}
		return
	}
	c.State.MissingMenuItems = append(c.State.MissingMenuItems, pendingMenuItem{
		LocalPostID:    localID,
		MenuItemType:   post.MenuItemType,
		MenuItemObject: post.MenuItemObject,
		ReferencedWPID: post.MenuItemObjectID,
	})
}

func (c *Controller) resolveMenuItemTarget(menuItemType, referencedWPID string) (string, bool) {
	switch menuItemType {
	case "post_type":
		localID, ok := c.State.ProcessedPosts[referencedWPID]
		return localID, ok
	case "taxonomy":
		localID, ok := c.State.ProcessedTermsByWPID[referencedWPID]
		return localID, ok
	default:
		return "", false
	}
}
