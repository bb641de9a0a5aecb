package wxr

import (
	"errors"
	"fmt"

	"github.com/ha1tch/wxrimport/token"
	"github.com/ha1tch/wxrimport/xmlproc"
)

// ErrNeedMore is returned by Next when the underlying processor suspended
// awaiting more bytes; the caller should feed more input to the processor
// and call Next again.
var ErrNeedMore = errors.New("wxr: more input needed")

type frameKind int

const (
	frameRoot frameKind = iota
	frameRSS
	frameChannel
	frameAuthor
	frameTerm
	frameTermMeta
	frameItem
	framePostMeta
	frameComment
	frameCommentMeta
	frameLeaf
	frameCategory
	frameGUID
	frameUnknown
)

type frame struct {
	kind   frameKind
	values map[string]string

	fieldKey string // frameLeaf: field name to assign on close
	text     []byte // frameLeaf/frameCategory/frameGUID: accumulated text

	termKind Kind // frameTerm: CategoryKind, TagKind, or TermKind

	terms           []PostTerm // frameItem
	guidIsPermaLink bool       // frameItem, set by a closing frameGUID child

	attrDomain   string // frameCategory
	attrNicename string // frameCategory
	attrPermaLnk bool   // frameGUID
}

// Reader is a lazy, restartable WXR entity reader layered on a
// xmlproc.Processor. Next pulls one entity at a time in document order.
type Reader struct {
	p       *xmlproc.Processor
	stack   []*frame
	channel *frame
	pending []Entity

	siteOptionFlushed bool
	versionErr        error
}

// NewReader wraps an already constructed Processor.
func NewReader(p *xmlproc.Processor) *Reader {
	return &Reader{
		p:     p,
		stack: []*frame{{kind: frameRoot, values: map[string]string{}}},
	}
}

func (r *Reader) top() *frame { return r.stack[len(r.stack)-1] }

func (r *Reader) push(f *frame) {
	if f.values == nil {
		f.values = map[string]string{}
	}
	r.stack = append(r.stack, f)
}

func (r *Reader) pop() *frame {
	f := r.top()
	r.stack = r.stack[:len(r.stack)-1]
	return f
}

func (r *Reader) emit(e Entity) { r.pending = append(r.pending, e) }

// Next returns the next entity in document order. It reports false with a
// nil error at a clean end of document, false with ErrNeedMore when more
// bytes are required, and false with ErrMalformedXML or ErrMissingVersion
// when the document is invalid.
func (r *Reader) Next() (Entity, bool, error) {
	for {
		if len(r.pending) > 0 {
			e := r.pending[0]
			r.pending = r.pending[1:]
			if r.versionErr != nil && e.Kind == SiteOptionKind {
				return Entity{}, false, r.versionErr
			}
			return e, true, nil
		}
		if !r.p.NextToken() {
			if r.p.State() == xmlproc.IncompleteInput {
				return Entity{}, false, ErrNeedMore
			}
			if perr := r.p.LastError(); perr != nil {
				return Entity{}, false, fmt.Errorf("%w: %w", ErrMalformedXML, perr)
			}
			return Entity{}, false, nil
		}
		r.handleToken(r.p.CurrentToken())
	}
}

func (r *Reader) handleToken(tok token.Token) {
	switch tok.Kind {
	case token.Tag:
		if tok.IsCloser {
			r.handleClose()
			return
		}
		r.handleOpen(tok)
		if tok.IsEmpty {
			r.handleClose()
		}
	case token.Text, token.CData:
		switch r.top().kind {
		case frameLeaf, frameCategory, frameGUID:
			if text, ok := r.p.GetModifiableText(); ok {
				r.top().text = append(r.top().text, text...)
			}
		}
	}
}

func (r *Reader) handleOpen(tok token.Token) {
	ns, local := tok.NamespaceURI, tok.LocalName
	parent := r.top()

	switch parent.kind {
	case frameRoot:
		if local == "rss" {
			r.push(&frame{kind: frameRSS})
			return
		}
	case frameRSS:
		if local == "channel" {
			r.push(&frame{kind: frameChannel})
			r.channel = r.top()
			return
		}
	case frameChannel:
		switch {
		case ns == NamespaceWP && local == "wxr_version":
			r.push(&frame{kind: frameLeaf, fieldKey: "wxr_version"})
			return
		case ns == "" && (local == "base_site_url" || local == "base_blog_url"):
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		case ns == NamespaceWP && local == "author":
			r.flushSiteOption()
			r.push(&frame{kind: frameAuthor})
			return
		case ns == NamespaceWP && local == "category":
			r.flushSiteOption()
			r.push(&frame{kind: frameTerm, termKind: CategoryKind, values: map[string]string{"taxonomy": "category"}})
			return
		case ns == NamespaceWP && local == "tag":
			r.flushSiteOption()
			r.push(&frame{kind: frameTerm, termKind: TagKind, values: map[string]string{"taxonomy": "post_tag"}})
			return
		case ns == NamespaceWP && local == "term":
			r.flushSiteOption()
			r.push(&frame{kind: frameTerm, termKind: TermKind})
			return
		case local == "item":
			r.flushSiteOption()
			r.push(&frame{kind: frameItem})
			return
		}
	case frameAuthor:
		if ns == NamespaceWP {
			switch local {
			case "author_id", "author_login", "author_email", "author_display_name",
				"author_first_name", "author_last_name":
				r.push(&frame{kind: frameLeaf, fieldKey: local})
				return
			}
		}
	case frameTerm:
		if ns == NamespaceWP && local == "termmeta" {
			r.push(&frame{kind: frameTermMeta})
			return
		}
		if ns == NamespaceWP && termLeafFields[parent.termKind][local] != "" {
			r.push(&frame{kind: frameLeaf, fieldKey: termLeafFields[parent.termKind][local]})
			return
		}
	case frameTermMeta:
		if ns == NamespaceWP && (local == "meta_key" || local == "meta_value") {
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		}
	case frameItem:
		switch {
		case ns == "" && local == "title":
			r.push(&frame{kind: frameLeaf, fieldKey: "title"})
			return
		case ns == "" && local == "link":
			r.push(&frame{kind: frameLeaf, fieldKey: "link"})
			return
		case ns == "" && local == "pubDate":
			r.push(&frame{kind: frameLeaf, fieldKey: "pubDate"})
			return
		case ns == NamespaceDC && local == "creator":
			r.push(&frame{kind: frameLeaf, fieldKey: "creator"})
			return
		case ns == "" && local == "guid":
			isPerma, _ := r.p.GetAttribute("", "isPermaLink")
			r.push(&frame{kind: frameGUID, attrPermaLnk: isPerma == "true"})
			return
		case ns == "" && local == "description":
			r.push(&frame{kind: frameLeaf, fieldKey: "description"})
			return
		case ns == NamespaceContent && local == "encoded":
			r.push(&frame{kind: frameLeaf, fieldKey: "content_encoded"})
			return
		case ns == NamespaceExcerpt && local == "encoded":
			r.push(&frame{kind: frameLeaf, fieldKey: "excerpt_encoded"})
			return
		case ns == NamespaceWP && itemLeafFields[local]:
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		case ns == "" && local == "category":
			domain, _ := r.p.GetAttribute("", "domain")
			nicename, _ := r.p.GetAttribute("", "nicename")
			r.push(&frame{kind: frameCategory, attrDomain: domain, attrNicename: nicename})
			return
		case ns == NamespaceWP && local == "postmeta":
			r.push(&frame{kind: framePostMeta})
			return
		case ns == NamespaceWP && local == "comment":
			r.push(&frame{kind: frameComment})
			return
		}
	case framePostMeta:
		if ns == NamespaceWP && (local == "meta_key" || local == "meta_value") {
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		}
	case frameComment:
		if ns == NamespaceWP && local == "commentmeta" {
			r.push(&frame{kind: frameCommentMeta})
			return
		}
		if ns == NamespaceWP && commentLeafFields[local] {
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		}
	case frameCommentMeta:
		if ns == NamespaceWP && (local == "meta_key" || local == "meta_value") {
			r.push(&frame{kind: frameLeaf, fieldKey: local})
			return
		}
	}
	r.push(&frame{kind: frameUnknown})
}

var itemLeafFields = map[string]bool{
	"post_id": true, "post_date": true, "post_date_gmt": true,
	"comment_status": true, "ping_status": true, "post_name": true,
	"status": true, "post_parent": true, "menu_order": true,
	"post_type": true, "is_sticky": true, "attachment_url": true,
	"menu_item_type": true, "menu_item_object": true, "menu_item_object_id": true,
}

var commentLeafFields = map[string]bool{
	"comment_id": true, "comment_author": true, "comment_author_email": true,
	"comment_author_url": true, "comment_author_IP": true, "comment_date": true,
	"comment_date_gmt": true, "comment_content": true, "comment_approved": true,
	"comment_type": true, "comment_parent": true, "comment_user_id": true,
}

var termLeafFields = map[Kind]map[string]string{
	CategoryKind: {
		"term_id": "term_id", "category_nicename": "slug",
		"category_parent": "parent", "cat_name": "name",
		"category_description": "description",
	},
	TagKind: {
		"term_id": "term_id", "tag_slug": "slug",
		"tag_name": "name", "tag_description": "description",
	},
	TermKind: {
		"term_id": "term_id", "term_taxonomy": "taxonomy",
		"term_slug": "slug", "term_parent": "parent",
		"term_name": "name", "term_description": "description",
	},
}

func (r *Reader) flushSiteOption() {
	if r.siteOptionFlushed || r.channel == nil {
		return
	}
	r.siteOptionFlushed = true
	v := r.channel.values["wxr_version"]
	if err := ValidateVersion(v); err != nil {
		r.versionErr = err
	}
	r.emit(Entity{Kind: SiteOptionKind, SiteOption: SiteOption{
		WXRVersion:  v,
		BaseSiteURL: r.channel.values["base_site_url"],
		BaseBlogURL: r.channel.values["base_blog_url"],
	}})
}

func (r *Reader) handleClose() {
	f := r.pop()
	switch f.kind {
	case frameChannel:
		r.flushSiteOption()

	case frameLeaf:
		r.top().values[f.fieldKey] = string(f.text)

	case frameCategory:
		parent := r.top()
		parent.terms = append(parent.terms, PostTerm{
			Domain: f.attrDomain,
			Slug:   f.attrNicename,
			Name:   string(f.text),
		})

	case frameGUID:
		parent := r.top()
		parent.values["guid"] = string(f.text)
		parent.guidIsPermaLink = f.attrPermaLnk

	case frameAuthor:
		r.emit(Entity{Kind: AuthorKind, Author: Author{
			AuthorID:    f.values["author_id"],
			Login:       f.values["author_login"],
			Email:       f.values["author_email"],
			DisplayName: f.values["author_display_name"],
			FirstName:   f.values["author_first_name"],
			LastName:    f.values["author_last_name"],
		}})

	case frameTerm:
		r.emit(Entity{Kind: f.termKind, Term: Term{
			TermID:      f.values["term_id"],
			Taxonomy:    f.values["taxonomy"],
			Slug:        f.values["slug"],
			Name:        f.values["name"],
			Parent:      f.values["parent"],
			Description: f.values["description"],
		}})

	case frameTermMeta:
		parent := r.top()
		r.emit(Entity{Kind: TermMetaKind, TermMeta: TermMeta{
			TermID: parent.values["term_id"],
			Key:    f.values["meta_key"],
			Value:  f.values["meta_value"],
		}})

	case frameItem:
		r.emit(Entity{Kind: PostKind, Post: Post{
			PostID:           f.values["post_id"],
			Title:            f.values["title"],
			Link:             f.values["link"],
			PubDate:          f.values["pubDate"],
			Creator:          f.values["creator"],
			GUID:             f.values["guid"],
			GUIDIsPermaLink:  f.guidIsPermaLink,
			Description:      f.values["description"],
			ContentEncoded:   f.values["content_encoded"],
			ExcerptEncoded:   f.values["excerpt_encoded"],
			PostDate:         f.values["post_date"],
			PostDateGMT:      f.values["post_date_gmt"],
			CommentStatus:    f.values["comment_status"],
			PingStatus:       f.values["ping_status"],
			PostName:         f.values["post_name"],
			Status:           f.values["status"],
			PostParent:       f.values["post_parent"],
			MenuOrder:        f.values["menu_order"],
			PostType:         f.values["post_type"],
			IsSticky:         f.values["is_sticky"] == "1",
			AttachmentURL:    f.values["attachment_url"],
			Terms:            f.terms,
			MenuItemType:     f.values["menu_item_type"],
			MenuItemObject:   f.values["menu_item_object"],
			MenuItemObjectID: f.values["menu_item_object_id"],
		}})

	case framePostMeta:
		parent := r.top()
		r.emit(Entity{Kind: PostMetaKind, PostMeta: PostMeta{
			PostID: parent.values["post_id"],
			Key:    f.values["meta_key"],
			Value:  f.values["meta_value"],
		}})

	case frameComment:
		parent := r.top()
		r.emit(Entity{Kind: CommentKind, Comment: Comment{
			PostID:             parent.values["post_id"],
			CommentID:          f.values["comment_id"],
			CommentAuthor:      f.values["comment_author"],
			CommentAuthorEmail: f.values["comment_author_email"],
			CommentAuthorURL:   f.values["comment_author_url"],
			CommentAuthorIP:    f.values["comment_author_IP"],
			CommentDate:        f.values["comment_date"],
			CommentDateGMT:     f.values["comment_date_gmt"],
			CommentContent:     f.values["comment_content"],
			CommentApproved:    f.values["comment_approved"],
			CommentType:        f.values["comment_type"],
			CommentParent:      f.values["comment_parent"],
			CommentUserID:      f.values["comment_user_id"],
		}})

	case frameCommentMeta:
		comment := r.top()
		item := r.stack[len(r.stack)-2]
		r.emit(Entity{Kind: CommentMetaKind, CommentMeta: CommentMeta{
			PostID:    item.values["post_id"],
			CommentID: comment.values["comment_id"],
			Key:       f.values["meta_key"],
			Value:     f.values["meta_value"],
		}})
	}
}
