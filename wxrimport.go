// Package wxrimport provides a streaming, namespace-aware XML 1.0
// pull-parser specialized for WordPress eXtended RSS (WXR) exports, and an
// import controller that drives a WXR entity stream into a Store.
//
// Example usage:
//
//	p, err := xmlproc.FromString(data, nil)
//	reader := wxr.NewReader(p)
//	controller := importer.NewController(store, fetcher, importer.NewImportState(sessionID), nil)
//	controller.UploadsDir = "./uploads"
//	err = controller.Run(ctx, reader)
package wxrimport

import (
	"context"
	"log/slog"

	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/token"
	"github.com/ha1tch/wxrimport/wxr"
	"github.com/ha1tch/wxrimport/xmlproc"
)

// Parse constructs a WXR entity Reader over a complete, already fully
// read document.
func Parse(data []byte) (*wxr.Reader, error) {
	p, err := xmlproc.FromString(data, nil)
	if err != nil {
		return nil, err
	}
	return wxr.NewReader(p), nil
}

// Import drains reader through a Controller built from store, fetcher,
// and state, returning once the document ends or the controller returns
// an error (including wxr.ErrNeedMore for a suspended streaming parse).
// uploadsDir is where attachment fetches land; leave it empty to skip
// attachment fetching regardless of fetcher.
func Import(ctx context.Context, reader *wxr.Reader, store importer.Store, fetcher importer.AttachmentFetcher, uploadsDir string, state *importer.ImportState, log *slog.Logger) error {
	c := importer.NewController(store, fetcher, state, log)
	c.UploadsDir = uploadsDir
	return c.Run(ctx, reader)
}

// Re-export the core types for convenience, the way tsqlparser.go
// re-exports ast/token types under the root package.
type (
	Processor = xmlproc.Processor
	Cursor    = xmlproc.Cursor
	Token     = token.Token

	Entity      = wxr.Entity
	Kind        = wxr.Kind
	SiteOption  = wxr.SiteOption
	Author      = wxr.Author
	Term        = wxr.Term
	Post        = wxr.Post
	PostMeta    = wxr.PostMeta
	Comment     = wxr.Comment
	CommentMeta = wxr.CommentMeta
	TermMeta    = wxr.TermMeta

	Controller  = importer.Controller
	ImportState = importer.ImportState
	Store       = importer.Store
)

// Entity kind constants, re-exported for convenience.
const (
	AuthorKind      = wxr.AuthorKind
	CategoryKind    = wxr.CategoryKind
	TagKind         = wxr.TagKind
	TermKind        = wxr.TermKind
	PostKind        = wxr.PostKind
	PostMetaKind    = wxr.PostMetaKind
	CommentKind     = wxr.CommentKind
	CommentMetaKind = wxr.CommentMetaKind
	TermMetaKind    = wxr.TermMetaKind
	SiteOptionKind  = wxr.SiteOptionKind
)

// NewImportState returns a zero-valued, ready-to-use ImportState for a
// new import session.
func NewImportState(sessionID string) *ImportState {
	return importer.NewImportState(sessionID)
}
