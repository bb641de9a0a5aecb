package importer_test

import (
	"context"
	"fmt"

	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/wxr"
)

// fakeStore is an in-memory importer.Store for exercising the controller
// without a real database.
type fakeStore struct {
	nextID int

	usersByLogin map[string]string
	terms        map[string]string // taxonomy|slug -> id
	postsByKey   map[string]string // title|date -> id

	postAuthor  map[string]string
	postMeta    map[string][]kv
	postTerms   map[string][]string
	postParent  map[string]string
	stickied    map[string]bool
	comments    map[string][]wxr.Comment
	commentMeta map[string][]kv
	substitutes map[string][]kv // post id -> (find, replace) pairs applied
}

type kv struct{ k, v string }

func newFakeStore() *fakeStore {
	return &fakeStore{
		usersByLogin: map[string]string{},
		terms:        map[string]string{},
		postsByKey:   map[string]string{},
		postAuthor:   map[string]string{},
		postMeta:     map[string][]kv{},
		postTerms:    map[string][]string{},
		postParent:   map[string]string{},
		stickied:     map[string]bool{},
		comments:     map[string][]wxr.Comment{},
		commentMeta:  map[string][]kv{},
		substitutes:  map[string][]kv{},
	}
}

func (s *fakeStore) newID() string {
	s.nextID++
	return fmt.Sprintf("id%d", s.nextID)
}

func (s *fakeStore) FindOrCreateUser(_ context.Context, a wxr.Author) (string, error) {
	if id, ok := s.usersByLogin[a.Login]; ok {
		return id, nil
	}
	id := s.newID()
	s.usersByLogin[a.Login] = id
	return id, nil
}

func (s *fakeStore) FindUser(_ context.Context, login string) (string, bool, error) {
	id, ok := s.usersByLogin[login]
	return id, ok, nil
}

func (s *fakeStore) TermExists(_ context.Context, taxonomy, slug string) (string, bool, error) {
	id, ok := s.terms[taxonomy+"|"+slug]
	return id, ok, nil
}

func (s *fakeStore) InsertTerm(_ context.Context, t wxr.Term) (string, error) {
	id := s.newID()
	s.terms[t.Taxonomy+"|"+t.Slug] = id
	return id, nil
}

func (s *fakeStore) AddTermMeta(context.Context, string, string, string) error { return nil }

func (s *fakeStore) PostExists(_ context.Context, title, date string) (string, bool, error) {
	id, ok := s.postsByKey[postKey(title, date)]
	return id, ok, nil
}

func (s *fakeStore) InsertPost(_ context.Context, p wxr.Post, authorLocalID string) (string, error) {
	id := s.newID()
	s.postsByKey[postKey(p.Title, p.PostDate)] = id
	s.postAuthor[id] = authorLocalID
	return id, nil
}

func postKey(title, date string) string { return title + "|" + date }

func (s *fakeStore) AddPostMeta(_ context.Context, postID, key, value string) error {
	s.postMeta[postID] = append(s.postMeta[postID], kv{key, value})
	return nil
}

func (s *fakeStore) SetPostTerms(_ context.Context, postID string, termIDs []string) error {
	s.postTerms[postID] = termIDs
	return nil
}

func (s *fakeStore) StickPost(_ context.Context, postID string) error {
	s.stickied[postID] = true
	return nil
}

func (s *fakeStore) UpdatePostParent(_ context.Context, postID, parentID string) error {
	s.postParent[postID] = parentID
	return nil
}

func (s *fakeStore) UpdatePostContentSubstitute(_ context.Context, postID, find, replace string) error {
	s.substitutes[postID] = append(s.substitutes[postID], kv{find, replace})
	return nil
}

func (s *fakeStore) InsertComment(_ context.Context, c wxr.Comment, postID string) (string, error) {
	id := s.newID()
	c.PostID = postID
	s.comments[postID] = append(s.comments[postID], c)
	return id, nil
}

func (s *fakeStore) AddCommentMeta(_ context.Context, commentID, key, value string) error {
	s.commentMeta[commentID] = append(s.commentMeta[commentID], kv{key, value})
	return nil
}

var _ importer.Store = (*fakeStore)(nil)

// fakeFetcher stands in for a real attachment fetch: it records the bucket
// it was called with and returns a deterministic local path instead of
// touching the filesystem.
type fakeFetcher struct {
	calls []fetchCall
}

type fetchCall struct {
	url, destPath, bucket string
}

func (f *fakeFetcher) Fetch(_ context.Context, url, destPath, bucket string) (importer.FetchResult, error) {
	f.calls = append(f.calls, fetchCall{url, destPath, bucket})
	return importer.FetchResult{File: destPath + "/" + bucket + "/fetched", URL: url, FinalURL: url}, nil
}

var _ importer.AttachmentFetcher = (*fakeFetcher)(nil)
