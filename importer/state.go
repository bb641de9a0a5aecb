package importer

import "sort"

// pendingMenuItem is a nav_menu_item post whose wp:menu-item-object-id
// referenced a post or term not yet seen when it was imported.
type pendingMenuItem struct {
	LocalPostID    string
	MenuItemType   string
	MenuItemObject string
	ReferencedWPID string
}

// ImportState is the checkpointable state of one import run: the ID-remap
// tables that make re-running an import idempotent, the URL substitution
// table applied during back-fill, and the forward references left over
// from a single streaming pass through the document.
type ImportState struct {
	SessionID string

	// ProcessedAuthors maps a WXR wp:author_id to the local user ID it was
	// resolved to.
	ProcessedAuthors map[string]string
	// ProcessedAuthorsByLogin maps a wp:author_login to the same local
	// user ID, since <dc:creator> on an item carries the login, not the
	// author_id.
	ProcessedAuthorsByLogin map[string]string
	// ProcessedTerms maps "taxonomy|slug" to the local term ID.
	ProcessedTerms map[string]string
	// ProcessedTermsByWPID maps a WXR wp:term_id to the local term ID, for
	// wp:termmeta records which only ever carry the wire ID.
	ProcessedTermsByWPID map[string]string
	// ProcessedPosts maps a WXR wp:post_id to the local post ID.
	ProcessedPosts map[string]string

	// URLRemap maps an old URL or path fragment to its replacement,
	// applied longest-key-first so a remap of "/2020/01/foo" doesn't get
	// shadowed by a narrower remap of "/2020/01".
	URLRemap map[string]string

	MissingMenuItems []pendingMenuItem
	// OrphanParents maps a local post ID to the wp:post_id of a parent
	// that had not been imported yet when this post was created.
	OrphanParents map[string]string
	// FeaturedImageRefs maps a local post ID to the wp:post_id of its
	// featured image attachment, for re-pointing once that attachment is
	// imported (it may appear later in the document).
	FeaturedImageRefs map[string]string

	Cursor string
}

// NewImportState returns a zero-valued, ready-to-use ImportState.
func NewImportState(sessionID string) *ImportState {
	return &ImportState{
		SessionID:               sessionID,
		ProcessedAuthors:        map[string]string{},
		ProcessedAuthorsByLogin: map[string]string{},
		ProcessedTerms:          map[string]string{},
		ProcessedTermsByWPID:    map[string]string{},
		ProcessedPosts:          map[string]string{},
		URLRemap:                map[string]string{},
		OrphanParents:           map[string]string{},
		FeaturedImageRefs:       map[string]string{},
	}
}

// SortedURLRemapKeys returns URLRemap's keys ordered longest-first, so
// substitution never lets a short key mask a longer, more specific one.
func (s *ImportState) SortedURLRemapKeys() []string {
	keys := make([]string, 0, len(s.URLRemap))
	for k := range s.URLRemap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func termKey(taxonomy, slug string) string { return taxonomy + "|" + slug }
