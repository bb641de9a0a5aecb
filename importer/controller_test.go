package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/wxr"
	"github.com/ha1tch/wxrimport/xmlproc"
)

const header = `<rss><channel>
<wp:wxr_version xmlns:wp="http://wordpress.org/export/1.2/">1.2</wp:wxr_version>
<base_site_url>http://example.com</base_site_url>
<base_blog_url>http://example.com/blog</base_blog_url>
`

func mustReader(t *testing.T, doc string) *wxr.Reader {
	t.Helper()
	p, err := xmlproc.FromString([]byte(doc), nil)
	require.NoError(t, err)
	return wxr.NewReader(p)
}

func newTestController(store importer.Store) *importer.Controller {
	return newTestControllerWithFetcher(store, &fakeFetcher{})
}

func newTestControllerWithFetcher(store importer.Store, fetcher importer.AttachmentFetcher) *importer.Controller {
	c := importer.NewController(store, fetcher, importer.NewImportState("sess-1"), nil)
	c.UploadsDir = "/uploads"
	return c
}

func TestControllerRun(t *testing.T) {
	t.Run("author and term import, then idempotent rerun", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<wp:author xmlns:wp="http://wordpress.org/export/1.2/">
<wp:author_id>1</wp:author_id>
<wp:author_login>admin</wp:author_login>
<wp:author_email>admin@example.com</wp:author_email>
</wp:author>
<wp:category xmlns:wp="http://wordpress.org/export/1.2/">
<wp:term_id>5</wp:term_id>
<wp:category_nicename>news</wp:category_nicename>
<wp:cat_name>News</wp:cat_name>
</wp:category>
</channel></rss>`

		store := newFakeStore()
		c := newTestController(store)
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		require.Len(t, store.usersByLogin, 1)
		require.Len(t, store.terms, 1)
		assert.Equal(t, "id1", c.State.ProcessedAuthors["1"])
		assert.Equal(t, "id2", c.State.ProcessedTerms["category|news"])

		// Re-running the same stream against the same state must not create
		// duplicate users or terms.
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))
		assert.Len(t, store.usersByLogin, 1)
		assert.Len(t, store.terms, 1)
	})

	t.Run("post meta and comments flush once the owning post is seen", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Hello</title>
<guid isPermaLink="false">http://example.com/?p=1</guid>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">1</wp:post_id>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">post</wp:post_type>
<wp:postmeta xmlns:wp="http://wordpress.org/export/1.2/">
<wp:meta_key>_thumbnail_id</wp:meta_key>
<wp:meta_value>99</wp:meta_value>
</wp:postmeta>
<wp:comment xmlns:wp="http://wordpress.org/export/1.2/">
<wp:comment_id>9</wp:comment_id>
<wp:comment_author>Jane</wp:comment_author>
<wp:commentmeta>
<wp:meta_key>rating</wp:meta_key>
<wp:meta_value>5</wp:meta_value>
</wp:commentmeta>
</wp:comment>
</item>
</channel></rss>`

		store := newFakeStore()
		c := newTestController(store)
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		postID, ok := store.postsByKey["Hello|"]
		require.True(t, ok, "post should have been inserted")
		require.Len(t, store.comments[postID], 1)
		assert.Equal(t, "Jane", store.comments[postID][0].CommentAuthor)
		require.Len(t, store.commentMeta, 1)

		// _thumbnail_id is deferred to backfill via FeaturedImageRefs, not
		// written directly by flushPostChildren until the attachment post
		// with wp:post_id 99 has actually been imported.
		assert.Equal(t, "99", c.State.FeaturedImageRefs[postID])
	})

	t.Run("orphan parent resolves during backfill once the parent streams past", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Child</title>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">2</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">child</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">post</wp:post_type>
<wp:post_parent xmlns:wp="http://wordpress.org/export/1.2/">1</wp:post_parent>
</item>
<item>
<title>Parent</title>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">1</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">parent</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">post</wp:post_type>
</item>
</channel></rss>`

		store := newFakeStore()
		c := newTestController(store)
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		childLocal := c.State.ProcessedPosts["2"]
		parentLocal := c.State.ProcessedPosts["1"]
		require.NotEmpty(t, childLocal)
		require.NotEmpty(t, parentLocal)
		assert.Equal(t, parentLocal, store.postParent[childLocal])
		assert.Empty(t, c.State.OrphanParents)
	})

	t.Run("menu item target resolves during backfill once the target streams past", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Main Menu Item</title>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">10</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">main-menu-item</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">nav_menu_item</wp:post_type>
<wp:menu_item_type xmlns:wp="http://wordpress.org/export/1.2/">post_type</wp:menu_item_type>
<wp:menu_item_object_id xmlns:wp="http://wordpress.org/export/1.2/">20</wp:menu_item_object_id>
</item>
<item>
<title>Target Page</title>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">20</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">target-page</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">page</wp:post_type>
</item>
</channel></rss>`

		store := newFakeStore()
		c := newTestController(store)
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		assert.Empty(t, c.State.MissingMenuItems)
	})

	t.Run("URL remap rewrites longest key first across every imported post", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Post</title>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">1</wp:post_id>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">post</wp:post_type>
</item>
</channel></rss>`

		store := newFakeStore()
		c := newTestController(store)

		// URLRemap is normally populated as attachment posts stream past;
		// seed it directly to exercise the longest-key-first ordering
		// backfillURLRemap relies on.
		c.State.URLRemap["/2020/01/foo"] = "/media/foo"
		c.State.URLRemap["/2020/01"] = "/media"

		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		postLocal := c.State.ProcessedPosts["1"]
		require.NotEmpty(t, postLocal)
		subs := store.substitutes[postLocal]
		require.Len(t, subs, 2)
		assert.Equal(t, "/2020/01/foo", subs[0].k)
		assert.Equal(t, "/2020/01", subs[1].k)
	})

	t.Run("attachment posts are fetched and populate the URL remap", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Photo</title>
<guid isPermaLink="false">http://example.com/?attachment_id=5</guid>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">5</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">photo</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">inherit</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">attachment</wp:post_type>
<wp:attachment_url xmlns:wp="http://wordpress.org/export/1.2/">http://example.com/wp-content/uploads/2020/03/photo.jpg</wp:attachment_url>
<wp:postmeta xmlns:wp="http://wordpress.org/export/1.2/">
<wp:meta_key>_wp_attached_file</wp:meta_key>
<wp:meta_value>2020/03/photo.jpg</wp:meta_value>
</wp:postmeta>
</item>
</channel></rss>`

		store := newFakeStore()
		fetcher := &fakeFetcher{}
		c := newTestControllerWithFetcher(store, fetcher)
		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		require.Len(t, fetcher.calls, 1)
		assert.Equal(t, "http://example.com/wp-content/uploads/2020/03/photo.jpg", fetcher.calls[0].url)
		assert.Equal(t, "2020/03", fetcher.calls[0].bucket)
		assert.Equal(t, "/uploads", fetcher.calls[0].destPath)

		remapped, ok := c.State.URLRemap["http://example.com/wp-content/uploads/2020/03/photo.jpg"]
		require.True(t, ok)
		assert.Equal(t, "/uploads/2020/03/fetched", remapped)
		assert.Equal(t, remapped, c.State.URLRemap["http://example.com/?attachment_id=5"])

		// _wp_attached_file is local editor state, not an imported postmeta
		// key.
		assert.Empty(t, store.postMeta[store.postsByKey["Photo|"]])
	})

	t.Run("attachment URL remap is populated even when the attachment already exists", func(t *testing.T) {
		t.Parallel()

		doc := header + `
<item>
<title>Photo</title>
<guid isPermaLink="false">http://example.com/?attachment_id=5</guid>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">5</wp:post_id>
<wp:post_name xmlns:wp="http://wordpress.org/export/1.2/">photo</wp:post_name>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">inherit</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">attachment</wp:post_type>
<wp:attachment_url xmlns:wp="http://wordpress.org/export/1.2/">http://example.com/wp-content/uploads/2020/03/photo.jpg</wp:attachment_url>
</item>
</channel></rss>`

		store := newFakeStore()
		store.postsByKey["Photo|"] = "existing-id"
		fetcher := &fakeFetcher{}
		c := newTestControllerWithFetcher(store, fetcher)

		require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

		require.Len(t, fetcher.calls, 1, "fetch must still run for a post that already existed locally")
		_, ok := c.State.URLRemap["http://example.com/wp-content/uploads/2020/03/photo.jpg"]
		assert.True(t, ok)
	})
}
