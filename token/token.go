// Package token defines the token taxonomy produced by the XML processor's
// tokenizer: the tagged variant over Tag, Text, CData, Comment, Processing
// Instruction, XML declaration, and DOCTYPE.
package token

// Kind identifies which variant of the XML token taxonomy a Token holds.
type Kind int

const (
	// Unset is the zero value; a freshly constructed Token carries no
	// content until the processor populates it.
	Unset Kind = iota
	Tag
	Text
	CData
	Comment
	ProcessingInstruction
	XMLDeclaration
	Doctype
)

func (k Kind) String() string {
	switch k {
	case Tag:
		return "Tag"
	case Text:
		return "Text"
	case CData:
		return "CData"
	case Comment:
		return "Comment"
	case ProcessingInstruction:
		return "ProcessingInstruction"
	case XMLDeclaration:
		return "XMLDeclaration"
	case Doctype:
		return "Doctype"
	default:
		return "Unset"
	}
}

// AttrKey is the fully qualified attribute name `{uri}local` used to key
// the attribute table of a Tag token.
type AttrKey struct {
	URI   string
	Local string
}

// Attr is a single attribute on a Tag token.
type Attr struct {
	Key AttrKey
	// Prefix is the literal namespace prefix as written in the source
	// (empty for unprefixed / default-namespace attributes).
	Prefix string
	Value  string
	// ValueStart/ValueLength locate the quoted value's inner bytes in the
	// live buffer; they shift under lexical updates.
	ValueStart  int
	ValueLength int
	// Start/Length span the whole `name="value"` region, including the
	// surrounding quotes, for use by set_attribute/remove_attribute.
	Start  int
	Length int
}

// DoctypeInfo carries the (optional) external identifier of a DOCTYPE token.
type DoctypeInfo struct {
	Name       string
	PublicID   string
	SystemID   string
	HasExtID   bool
	IsPublicID bool
}

// Token is the value the processor hands back from parse_next_token /
// next_token. Only the fields relevant to Kind are meaningful; callers
// should branch on Kind before reading the rest.
type Token struct {
	Kind Kind

	// Start/Length span the whole token in the live buffer (including
	// delimiters such as `<!--`/`-->` for comments).
	Start  int
	Length int

	// Tag fields.
	NamespaceURI string
	LocalName    string
	Prefix       string
	IsCloser     bool
	IsEmpty      bool
	Attrs        []Attr

	// Text/CData/Comment/PI modifiable-text span, relative to the live
	// buffer, excluding delimiters (e.g. the bytes between <![CDATA[ and
	// ]]> for a CData token).
	TextStart  int
	TextLength int

	// ProcessingInstruction target. A target matching "xml" in any case
	// after offset 0 is an ordinary PI, not an XML declaration.
	PITarget string

	Doctype DoctypeInfo
}

// QualifiedName returns the `{uri}local` form used for attribute/tag
// identity comparisons.
func (a Attr) QualifiedName() string {
	if a.Key.URI == "" {
		return a.Key.Local
	}
	return "{" + a.Key.URI + "}" + a.Key.Local
}
