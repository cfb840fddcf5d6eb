package site

import "time"

// Page kinds. Home and section pages carry child pages; regular pages carry
// content.
const (
	KindHome    = "home"
	KindSection = "section"
	KindPage    = "page"
)

// Page is one node of the content tree. The loader fills the source fields;
// the build pipeline fills Content and Summary after shortcode expansion and
// Markdown conversion. Templates only ever see pages through the engine's
// read view, so a Page is effectively immutable during rendering.
type Page struct {
	Kind    string
	Title   string
	Slug    string
	Date    time.Time
	Draft   bool
	Weight  int
	Summary string
	Params  map[string]any

	// RawContent is the Markdown body after front matter removal.
	// Content is the final HTML after both shortcode phases.
	RawContent string
	Content    string

	Section      string
	RelPermalink string
	Permalink    string
	SourcePath   string

	Pages  []*Page
	Parent *Page
	Site   *Site
}

// IsNode reports whether the page is a list-like page (home or section).
func (p *Page) IsNode() bool { return p.Kind != KindPage }

// Site is the root of the object graph handed to templates.
type Site struct {
	Title        string
	BaseURL      string
	LanguageCode string
	Params       map[string]any

	// Data holds the decoded data directory, keyed by file base name.
	Data map[string]any

	// Pages is every page including home and sections; RegularPages is
	// content pages only. Both are sorted by weight, then date descending.
	Pages        []*Page
	RegularPages []*Page
	Home         *Page
}
