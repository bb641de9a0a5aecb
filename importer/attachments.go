package importer

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ha1tch/wxrimport/wxr"
)

// attachedFileBucket matches the "YYYY/MM" stub a real WordPress export
// stores in _wp_attached_file ("2020/01/photo.jpg"), which takes priority
// over the post's own publish date when choosing where a re-fetched file
// lands.
var attachedFileBucket = regexp.MustCompile(`^(\d{4}/\d{2})/`)

// processAttachment fetches the remote file backing an attachment post and
// records its old and new locations in the URL remap. It runs whether or
// not the attachment already existed locally: a prior import may have
// created the post row without ever populating url_remap, and a re-run is
// the only chance to fix that up.
func (c *Controller) processAttachment(ctx context.Context, post wxr.Post, attachedFile string) {
	if c.Fetcher == nil || c.UploadsDir == "" {
		return
	}
	remoteURL := post.AttachmentURL
	if remoteURL == "" {
		remoteURL = post.GUID
	}
	if remoteURL == "" {
		return
	}

	result, err := c.Fetcher.Fetch(ctx, remoteURL, c.UploadsDir, attachmentBucket(post.PostDate, attachedFile))
	if err != nil {
		c.Log.Warn("attachment fetch failed", "wp_post_id", post.PostID, "url", remoteURL,
			"err", fmt.Errorf("%w: %w", ErrAttachmentProcessing, err))
		return
	}

	c.State.URLRemap[remoteURL] = result.File
	if post.GUID != "" && post.GUID != remoteURL {
		c.State.URLRemap[post.GUID] = result.File
	}
	if result.FinalURL != "" && result.FinalURL != remoteURL {
		c.State.URLRemap[result.FinalURL] = result.File
	}
}

// attachmentBucket picks the YYYY/MM directory a fetched file is stored
// under: the stub a real export embeds in _wp_attached_file if present,
// else the attachment post's own publish date.
func attachmentBucket(postDate, attachedFile string) string {
	if m := attachedFileBucket.FindStringSubmatch(attachedFile); m != nil {
		return m[1]
	}
	if len(postDate) >= 7 {
		return postDate[:4] + "/" + postDate[5:7]
	}
	return "misc"
}

// attachedFilePath pulls _wp_attached_file out of a post's buffered
// postmeta before flushPostChildren drops that key as local editor state.
func attachedFilePath(metas []wxr.PostMeta) string {
	for _, m := range metas {
		if m.Key == "_wp_attached_file" {
			return m.Value
		}
	}
	return ""
}
