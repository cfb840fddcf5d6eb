package site

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeContent(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func testConfig(t *testing.T, contentDir string) *Config {
	t.Helper()
	cfg := &Config{
		Title:      "Test Site",
		BaseURL:    "https://example.org/",
		ContentDir: contentDir,
	}
	cfg.applyDefaults()
	cfg.ContentDir = contentDir
	return cfg
}

func TestLoadSiteTree(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, map[string]string{
		"about.md":        "---\ntitle: About\n---\nabout body\n",
		"posts/_index.md": "---\ntitle: All Posts\n---\nsection intro\n",
		"posts/first.md":  "---\ntitle: First\ndate: 2024-01-02\n---\none\n",
		"posts/second.md": "---\ntitle: Second\ndate: 2024-03-04\n---\ntwo\n",
	})

	s, err := LoadSite(testConfig(t, dir))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if s.Home == nil || s.Home.Kind != KindHome {
		t.Fatalf("missing home page")
	}
	// home + posts section + 3 regular pages
	if len(s.Pages) != 5 {
		t.Fatalf("want 5 pages, got %d", len(s.Pages))
	}
	if len(s.RegularPages) != 3 {
		t.Fatalf("want 3 regular pages, got %d", len(s.RegularPages))
	}

	var posts *Page
	for _, p := range s.Pages {
		if p.Kind == KindSection && p.Section == "posts" {
			posts = p
		}
	}
	if posts == nil {
		t.Fatalf("posts section not found")
	}
	if posts.Title != "All Posts" {
		t.Fatalf("section title = %q, want %q", posts.Title, "All Posts")
	}
	if posts.RawContent != "section intro\n" {
		t.Fatalf("section raw content = %q", posts.RawContent)
	}
	if len(posts.Pages) != 2 {
		t.Fatalf("want 2 section pages, got %d", len(posts.Pages))
	}
	// Newer first.
	if posts.Pages[0].Title != "Second" || posts.Pages[1].Title != "First" {
		t.Fatalf("section order: %q, %q", posts.Pages[0].Title, posts.Pages[1].Title)
	}
	if got := posts.Pages[0].RelPermalink; got != "/posts/second/" {
		t.Fatalf("rel permalink = %q", got)
	}
	if got := posts.Pages[0].Permalink; got != "https://example.org/posts/second/" {
		t.Fatalf("permalink = %q", got)
	}
	if posts.Pages[0].Parent != posts {
		t.Fatalf("parent not wired")
	}
}

func TestLoadSiteDrafts(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, map[string]string{
		"wip.md":  "---\ntitle: WIP\ndraft: true\n---\nx\n",
		"live.md": "---\ntitle: Live\n---\ny\n",
	})

	cfg := testConfig(t, dir)
	s, err := LoadSite(cfg)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(s.RegularPages) != 1 || s.RegularPages[0].Title != "Live" {
		t.Fatalf("draft not excluded: %d pages", len(s.RegularPages))
	}

	cfg.BuildDrafts = true
	s, err = LoadSite(cfg)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(s.RegularPages) != 2 {
		t.Fatalf("want 2 pages with drafts, got %d", len(s.RegularPages))
	}
}

func TestLoadSiteSlugFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeContent(t, dir, map[string]string{
		"My First Post.md": "no front matter here\n",
	})

	s, err := LoadSite(testConfig(t, dir))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if len(s.RegularPages) != 1 {
		t.Fatalf("want 1 page, got %d", len(s.RegularPages))
	}
	p := s.RegularPages[0]
	if p.Slug != "my-first-post" {
		t.Fatalf("slug = %q", p.Slug)
	}
	if p.RelPermalink != "/my-first-post/" {
		t.Fatalf("rel permalink = %q", p.RelPermalink)
	}
}

func TestSortPages(t *testing.T) {
	pages := []*Page{
		{Title: "b", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "a", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "newest", Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "pinned", Weight: 1},
	}
	sortPages(pages)
	want := []string{"pinned", "newest", "a", "b"}
	for i, w := range want {
		if pages[i].Title != w {
			t.Fatalf("pos %d = %q, want %q", i, pages[i].Title, w)
		}
	}
}
