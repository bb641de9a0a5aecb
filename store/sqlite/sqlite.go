// Package sqlite implements importer.Store on top of SQLite via sqlx and
// the mattn/go-sqlite3 driver, the way smhanov-spore's SQLXStore wires a
// schema and context-scoped queries over jmoiron/sqlx. The schema is a
// single set of CREATE ... IF NOT EXISTS statements applied on Open; there
// are no migrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ha1tch/wxrimport/wxr"
)

const schema = `
CREATE TABLE IF NOT EXISTS wxr_users (
	id TEXT PRIMARY KEY,
	login TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL,
	display_name TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS wxr_terms (
	id TEXT PRIMARY KEY,
	taxonomy TEXT NOT NULL,
	slug TEXT NOT NULL,
	name TEXT NOT NULL,
	parent TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	UNIQUE(taxonomy, slug)
);

CREATE TABLE IF NOT EXISTS wxr_term_meta (
	term_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wxr_posts (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL DEFAULT '',
	title TEXT NOT NULL DEFAULT '',
	link TEXT NOT NULL DEFAULT '',
	author_id TEXT NOT NULL DEFAULT '',
	guid TEXT NOT NULL DEFAULT '',
	guid_is_permalink INTEGER NOT NULL DEFAULT 0,
	content TEXT NOT NULL DEFAULT '',
	excerpt TEXT NOT NULL DEFAULT '',
	post_date TEXT NOT NULL DEFAULT '',
	post_date_gmt TEXT NOT NULL DEFAULT '',
	comment_status TEXT NOT NULL DEFAULT '',
	ping_status TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	post_type TEXT NOT NULL DEFAULT '',
	parent_id TEXT NOT NULL DEFAULT '',
	menu_order TEXT NOT NULL DEFAULT '',
	sticky INTEGER NOT NULL DEFAULT 0,
	attachment_url TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS wxr_post_terms (
	post_id TEXT NOT NULL,
	term_id TEXT NOT NULL,
	UNIQUE(post_id, term_id)
);

CREATE TABLE IF NOT EXISTS wxr_post_meta (
	post_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS wxr_comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	author TEXT NOT NULL DEFAULT '',
	author_email TEXT NOT NULL DEFAULT '',
	author_url TEXT NOT NULL DEFAULT '',
	author_ip TEXT NOT NULL DEFAULT '',
	comment_date TEXT NOT NULL DEFAULT '',
	comment_date_gmt TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	approved TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	parent TEXT NOT NULL DEFAULT '',
	user_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS wxr_comment_meta (
	comment_id TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL
);
`

// Store is a sqlx-backed importer.Store.
type Store struct {
	DB *sqlx.DB
}

// Open opens (creating if necessary) a SQLite database at path and applies
// the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store/sqlite: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store/sqlite: migrate: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func newID() string { return uuid.NewString() }

func (s *Store) FindOrCreateUser(ctx context.Context, a wxr.Author) (string, error) {
	var id string
	err := s.DB.GetContext(ctx, &id, `SELECT id FROM wxr_users WHERE login = ?`, a.Login)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}
	id = newID()
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO wxr_users (id, login, email, display_name, first_name, last_name) VALUES (?, ?, ?, ?, ?, ?)`,
		id, a.Login, a.Email, a.DisplayName, a.FirstName, a.LastName)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) FindUser(ctx context.Context, login string) (string, bool, error) {
	var id string
	err := s.DB.GetContext(ctx, &id, `SELECT id FROM wxr_users WHERE login = ?`, login)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) TermExists(ctx context.Context, taxonomy, slug string) (string, bool, error) {
	var id string
	err := s.DB.GetContext(ctx, &id, `SELECT id FROM wxr_terms WHERE taxonomy = ? AND slug = ?`, taxonomy, slug)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) InsertTerm(ctx context.Context, t wxr.Term) (string, error) {
	id := newID()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO wxr_terms (id, taxonomy, slug, name, parent, description) VALUES (?, ?, ?, ?, ?, ?)`,
		id, t.Taxonomy, t.Slug, t.Name, t.Parent, t.Description)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AddTermMeta(ctx context.Context, termID, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO wxr_term_meta (term_id, key, value) VALUES (?, ?, ?)`, termID, key, value)
	return err
}

func (s *Store) PostExists(ctx context.Context, title, date string) (string, bool, error) {
	var id string
	err := s.DB.GetContext(ctx, &id,
		`SELECT id FROM wxr_posts WHERE title = ? AND post_date = ? LIMIT 1`, title, date)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (s *Store) InsertPost(ctx context.Context, p wxr.Post, authorLocalID string) (string, error) {
	id := newID()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO wxr_posts (
	id, slug, title, link, author_id, guid, guid_is_permalink, content, excerpt,
	post_date, post_date_gmt, comment_status, ping_status, status, post_type,
	parent_id, menu_order, sticky, attachment_url
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.PostName, p.Title, p.Link, authorLocalID, p.GUID, boolToInt(p.GUIDIsPermaLink),
		p.ContentEncoded, p.ExcerptEncoded, p.PostDate, p.PostDateGMT, p.CommentStatus,
		p.PingStatus, p.Status, p.PostType, "", p.MenuOrder, boolToInt(p.IsSticky), p.AttachmentURL)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AddPostMeta(ctx context.Context, postID, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO wxr_post_meta (post_id, key, value) VALUES (?, ?, ?)`, postID, key, value)
	return err
}

func (s *Store) SetPostTerms(ctx context.Context, postID string, termIDs []string) error {
	for _, termID := range termIDs {
		if _, err := s.DB.ExecContext(ctx,
			`INSERT OR IGNORE INTO wxr_post_terms (post_id, term_id) VALUES (?, ?)`, postID, termID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) StickPost(ctx context.Context, postID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE wxr_posts SET sticky = 1 WHERE id = ?`, postID)
	return err
}

func (s *Store) UpdatePostParent(ctx context.Context, postID, parentID string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE wxr_posts SET parent_id = ? WHERE id = ?`, parentID, postID)
	return err
}

func (s *Store) UpdatePostContentSubstitute(ctx context.Context, postID, find, replace string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE wxr_posts SET content = REPLACE(content, ?, ?), excerpt = REPLACE(excerpt, ?, ?) WHERE id = ?`,
		find, replace, find, replace, postID)
	return err
}

func (s *Store) InsertComment(ctx context.Context, c wxr.Comment, postID string) (string, error) {
	id := newID()
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO wxr_comments (
	id, post_id, author, author_email, author_url, author_ip, comment_date,
	comment_date_gmt, content, approved, type, parent, user_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, postID, c.CommentAuthor, c.CommentAuthorEmail, c.CommentAuthorURL, c.CommentAuthorIP,
		c.CommentDate, c.CommentDateGMT, c.CommentContent, c.CommentApproved, c.CommentType,
		c.CommentParent, c.CommentUserID)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AddCommentMeta(ctx context.Context, commentID, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO wxr_comment_meta (comment_id, key, value) VALUES (?, ?, ?)`, commentID, key, value)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
