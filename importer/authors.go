package importer

import (
	"context"

	"github.com/ha1tch/wxrimport/wxr"
)

// Author mapping strategies, selected by Controller.AuthorMappingStrategy.
const (
	// AuthorMappingCreate matches an existing user by login, creating one
	// if none exists. This is the default.
	AuthorMappingCreate = "create"
	// AuthorMappingMatchExisting matches an existing user by login; an
	// author with no match falls back to CurrentUserID rather than creating
	// a new account. When CurrentUserID is empty, the user is created as
	// under AuthorMappingCreate.
	AuthorMappingMatchExisting = "match-existing"
	// AuthorMappingCurrentUser attributes every source author to
	// CurrentUserID outright, skipping per-login resolution entirely. When
	// CurrentUserID is empty, the author is resolved as under
	// AuthorMappingCreate.
	AuthorMappingCurrentUser = "current-user"
)

func (c *Controller) importAuthor(ctx context.Context, a wxr.Author) error {
	if localID, ok := c.State.ProcessedAuthors[a.AuthorID]; ok {
		c.Log.Debug("author already imported", "wp_author_id", a.AuthorID, "local_id", localID)
		c.State.ProcessedAuthorsByLogin[a.Login] = localID
		return nil
	}
	localID, err := c.resolveAuthor(ctx, a)
	if err != nil {
		return err
	}
	c.State.ProcessedAuthors[a.AuthorID] = localID
	c.State.ProcessedAuthorsByLogin[a.Login] = localID
	c.Log.Info("imported author", "login", a.Login, "local_id", localID, "strategy", c.authorMappingStrategy())
	return nil
}

func (c *Controller) authorMappingStrategy() string {
	if c.AuthorMappingStrategy == "" {
		return AuthorMappingCreate
	}
	return c.AuthorMappingStrategy
}

func (c *Controller) resolveAuthor(ctx context.Context, a wxr.Author) (string, error) {
	switch c.authorMappingStrategy() {
	case AuthorMappingCurrentUser:
		if c.CurrentUserID != "" {
			return c.CurrentUserID, nil
		}
		c.Log.Warn("current-user author mapping requested but no CurrentUserID set, creating instead", "login", a.Login)
		return c.Store.FindOrCreateUser(ctx, a)
	case AuthorMappingMatchExisting:
		localID, ok, err := c.Store.FindUser(ctx, a.Login)
		if err != nil {
			return "", err
		}
		if ok {
			return localID, nil
		}
		if c.CurrentUserID != "" {
			c.Log.Warn("no existing user matches author, falling back to current user", "login", a.Login)
			return c.CurrentUserID, nil
		}
		return c.Store.FindOrCreateUser(ctx, a)
	default:
		return c.Store.FindOrCreateUser(ctx, a)
	}
}
