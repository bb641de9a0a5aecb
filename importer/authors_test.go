package importer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/wxrimport/importer"
)

func TestAuthorMappingCreate(t *testing.T) {
	t.Parallel()

	doc := header + `
<wp:author xmlns:wp="http://wordpress.org/export/1.2/">
<wp:author_id>1</wp:author_id>
<wp:author_login>admin</wp:author_login>
<wp:author_email>admin@example.com</wp:author_email>
</wp:author>
</channel></rss>`

	store := newFakeStore()
	c := newTestController(store)
	require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

	require.Len(t, store.usersByLogin, 1, "create strategy makes a new user when none exists")
}

func TestAuthorMappingMatchExistingFallsBackToCurrentUser(t *testing.T) {
	t.Parallel()

	doc := header + `
<wp:author xmlns:wp="http://wordpress.org/export/1.2/">
<wp:author_id>1</wp:author_id>
<wp:author_login>ghost</wp:author_login>
<wp:author_email>ghost@example.com</wp:author_email>
</wp:author>
</channel></rss>`

	store := newFakeStore()
	c := newTestController(store)
	c.AuthorMappingStrategy = importer.AuthorMappingMatchExisting
	c.CurrentUserID = "current-user-1"

	require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

	assert.Empty(t, store.usersByLogin, "match-existing must not create a user")
	assert.Equal(t, "current-user-1", c.State.ProcessedAuthors["1"])
}

func TestAuthorMappingMatchExistingMatchesKnownLogin(t *testing.T) {
	t.Parallel()

	doc := header + `
<wp:author xmlns:wp="http://wordpress.org/export/1.2/">
<wp:author_id>1</wp:author_id>
<wp:author_login>admin</wp:author_login>
<wp:author_email>admin@example.com</wp:author_email>
</wp:author>
</channel></rss>`

	store := newFakeStore()
	store.usersByLogin["admin"] = "existing-user-1"
	c := newTestController(store)
	c.AuthorMappingStrategy = importer.AuthorMappingMatchExisting

	require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

	assert.Equal(t, "existing-user-1", c.State.ProcessedAuthors["1"])
}

func TestAuthorMappingCurrentUserSkipsLookupEntirely(t *testing.T) {
	t.Parallel()

	doc := header + `
<wp:author xmlns:wp="http://wordpress.org/export/1.2/">
<wp:author_id>1</wp:author_id>
<wp:author_login>admin</wp:author_login>
<wp:author_email>admin@example.com</wp:author_email>
</wp:author>
</channel></rss>`

	store := newFakeStore()
	store.usersByLogin["admin"] = "existing-user-1"
	c := newTestController(store)
	c.AuthorMappingStrategy = importer.AuthorMappingCurrentUser
	c.CurrentUserID = "current-user-1"

	require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

	assert.Equal(t, "current-user-1", c.State.ProcessedAuthors["1"])
}

func TestPostAuthorFallsBackToCurrentUserWhenUnmapped(t *testing.T) {
	t.Parallel()

	doc := header + `
<item>
<title>Orphaned Author Post</title>
<dc:creator xmlns:dc="http://purl.org/dc/elements/1.1/">unknown-author</dc:creator>
<wp:post_id xmlns:wp="http://wordpress.org/export/1.2/">1</wp:post_id>
<wp:status xmlns:wp="http://wordpress.org/export/1.2/">publish</wp:status>
<wp:post_type xmlns:wp="http://wordpress.org/export/1.2/">post</wp:post_type>
</item>
</channel></rss>`

	store := newFakeStore()
	c := newTestController(store)
	c.CurrentUserID = "current-user-1"

	require.NoError(t, c.Run(context.Background(), mustReader(t, doc)))

	postLocal := c.State.ProcessedPosts["1"]
	require.NotEmpty(t, postLocal)
	assert.Equal(t, "current-user-1", store.postAuthor[postLocal])
}
