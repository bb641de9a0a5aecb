// Package wxr implements a WordPress eXtended RSS entity reader layered
// on top of xmlproc: it maps breadcrumb patterns in the WXR namespace
// vocabulary onto a typed stream of domain records.
package wxr

// Namespace URIs recognized inside a WXR document.
const (
	NamespaceWP      = "http://wordpress.org/export/1.2/"
	NamespaceDC      = "http://purl.org/dc/elements/1.1/"
	NamespaceContent = "http://purl.org/rss/1.0/modules/content/"
	NamespaceExcerpt = "http://wordpress.org/export/1.2/excerpt/"
)

// Kind identifies which variant of Entity is populated.
type Kind int

const (
	Unset Kind = iota
	SiteOptionKind
	AuthorKind
	CategoryKind
	TagKind
	TermKind
	PostKind
	PostMetaKind
	CommentKind
	CommentMetaKind
	TermMetaKind
)

func (k Kind) String() string {
	switch k {
	case SiteOptionKind:
		return "SiteOption"
	case AuthorKind:
		return "Author"
	case CategoryKind:
		return "Category"
	case TagKind:
		return "Tag"
	case TermKind:
		return "Term"
	case PostKind:
		return "Post"
	case PostMetaKind:
		return "PostMeta"
	case CommentKind:
		return "Comment"
	case CommentMetaKind:
		return "CommentMeta"
	case TermMetaKind:
		return "TermMeta"
	default:
		return "Unset"
	}
}

// Entity is the tagged variant emitted by Reader.Next. Only the field
// named by Kind is meaningful.
type Entity struct {
	Kind Kind

	SiteOption  SiteOption
	Author      Author
	Term        Term
	Post        Post
	PostMeta    PostMeta
	Comment     Comment
	CommentMeta CommentMeta
	TermMeta    TermMeta
}

// SiteOption carries the channel-level base URLs captured before the
// first item.
type SiteOption struct {
	WXRVersion  string
	BaseSiteURL string
	BaseBlogURL string
}

// Author mirrors a <wp:author> record.
type Author struct {
	AuthorID    string
	Login       string
	Email       string
	DisplayName string
	FirstName   string
	LastName    string
}

// Term unifies <wp:category>, <wp:tag>, and the generic <wp:term>: all
// three are the same normalized taxonomy record with different tag
// names and field spellings in the wire format.
type Term struct {
	TermID      string
	Taxonomy    string // "category", "post_tag", or the wp:term_taxonomy value
	Slug        string
	Name        string
	Parent      string
	Description string
}

// PostTerm is one <category domain="..." nicename="...">Name</category>
// entry attached to a Post.
type PostTerm struct {
	Domain string
	Slug   string
	Name   string
}

// Post mirrors an <item>. A nav_menu_item is also delivered as a Post,
// with its menu fields filled in.
type Post struct {
	PostID          string
	Title           string
	Link            string
	PubDate         string
	Creator         string
	GUID            string
	GUIDIsPermaLink bool
	Description     string
	ContentEncoded  string
	ExcerptEncoded  string
	PostDate        string
	PostDateGMT     string
	CommentStatus   string
	PingStatus      string
	PostName        string
	Status          string
	PostParent      string
	MenuOrder       string
	PostType        string
	IsSticky        bool
	AttachmentURL   string
	Terms           []PostTerm

	// Menu item fields, populated only when PostType == "nav_menu_item".
	MenuItemType     string
	MenuItemObject   string
	MenuItemObjectID string
}

// PostMeta mirrors a <wp:postmeta> child of an item.
type PostMeta struct {
	PostID string
	Key    string
	Value  string
}

// Comment mirrors a <wp:comment> child of an item.
type Comment struct {
	PostID             string
	CommentID          string
	CommentAuthor      string
	CommentAuthorEmail string
	CommentAuthorURL   string
	CommentAuthorIP    string
	CommentDate        string
	CommentDateGMT     string
	CommentContent     string
	CommentApproved    string
	CommentType        string
	CommentParent      string
	CommentUserID      string
}

// CommentMeta mirrors a <wp:commentmeta> child of a comment.
type CommentMeta struct {
	PostID    string
	CommentID string
	Key       string
	Value     string
}

// TermMeta mirrors a <wp:termmeta> child of a category/tag/term.
type TermMeta struct {
	TermID string
	Key    string
	Value  string
}
