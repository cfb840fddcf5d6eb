package site

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LoadSite walks the content directory and builds the page tree. Markdown is
// not converted here; pages leave with RawContent only.
func LoadSite(cfg *Config) (*Site, error) {
	s := &Site{
		Title:        cfg.Title,
		BaseURL:      cfg.BaseURL,
		LanguageCode: cfg.LanguageCode,
		Params:       cfg.Params,
		Data:         map[string]any{},
	}
	home := &Page{
		Kind:         KindHome,
		Title:        cfg.Title,
		RelPermalink: "/",
		Permalink:    permalink(cfg.BaseURL, "/"),
		Params:       map[string]any{},
		Site:         s,
	}
	s.Home = home
	s.Pages = append(s.Pages, home)

	if err := loadDir(cfg, s, home, cfg.ContentDir, ""); err != nil {
		return nil, err
	}

	sortPages(home.Pages)
	sortPages(s.Pages)
	sortPages(s.RegularPages)
	return s, nil
}

func loadDir(cfg *Config, s *Site, parent *Page, dir, urlPath string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) && urlPath == "" {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		src := filepath.Join(dir, name)

		if entry.IsDir() {
			secPath := urlPath + "/" + name
			sec := &Page{
				Kind:         KindSection,
				Title:        cases.Title(language.English).String(strings.ReplaceAll(name, "-", " ")),
				Section:      name,
				RelPermalink: secPath + "/",
				Permalink:    permalink(cfg.BaseURL, secPath+"/"),
				Params:       map[string]any{},
				Parent:       parent,
				Site:         s,
			}
			if err := loadDir(cfg, s, sec, src, secPath); err != nil {
				return err
			}
			sortPages(sec.Pages)
			s.Pages = append(s.Pages, sec)
			parent.Pages = append(parent.Pages, sec)
			continue
		}

		if !strings.HasSuffix(name, ".md") {
			continue
		}

		raw, err := os.ReadFile(src)
		if err != nil {
			return err
		}
		meta, body, err := splitFrontMatter(string(raw))
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}

		if name == "_index.md" {
			// Section (or home) metadata lives in its _index file.
			if err := applyFrontMatter(parent, meta); err != nil {
				return fmt.Errorf("%s: %w", src, err)
			}
			parent.RawContent = body
			parent.SourcePath = src
			continue
		}

		p := &Page{
			Kind:       KindPage,
			Section:    parent.Section,
			RawContent: body,
			SourcePath: src,
			Parent:     parent,
			Site:       s,
		}
		if err := applyFrontMatter(p, meta); err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		if p.Draft && !cfg.BuildDrafts {
			continue
		}
		if p.Slug == "" {
			p.Slug = urlize(strings.TrimSuffix(name, ".md"))
		}
		if p.Title == "" {
			p.Title = p.Slug
		}
		p.RelPermalink = urlPath + "/" + p.Slug + "/"
		p.Permalink = permalink(cfg.BaseURL, p.RelPermalink)

		s.Pages = append(s.Pages, p)
		s.RegularPages = append(s.RegularPages, p)
		parent.Pages = append(parent.Pages, p)
	}
	return nil
}

// sortPages orders by weight, then date descending, then title, matching the
// conventional front-page ordering of a blog.
func sortPages(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.Weight != b.Weight {
			if a.Weight == 0 || b.Weight == 0 {
				return b.Weight == 0
			}
			return a.Weight < b.Weight
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Title < b.Title
	})
}

func permalink(baseURL, rel string) string {
	return strings.TrimSuffix(baseURL, "/") + rel
}

// urlize lowers a name into a URL-safe slug.
func urlize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
