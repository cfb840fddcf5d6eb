package theme

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tsoniclang/tsumo/pkg/engine"
	"github.com/tsoniclang/tsumo/pkg/site"
)

//go:embed all:defaults
var defaultFiles embed.FS

// Theme holds the compiled layout and shortcode templates of one site.
// Every file compiles exactly once at load time; the resulting templates are
// read-only and shared across all page renders, including parallel ones.
// Theme implements engine.Environment.
type Theme struct {
	funcs      engine.Funcs
	templates  map[string]*engine.Template
	shortcodes map[string]*engine.Template
}

// Load compiles the layout directory. The embedded default layouts are the
// base layer; files on disk with the same relative path replace them. A
// parse error is fatal and names the offending file.
func Load(dir string, funcs engine.Funcs) (*Theme, error) {
	t := &Theme{
		funcs:      funcs,
		templates:  map[string]*engine.Template{},
		shortcodes: map[string]*engine.Template{},
	}

	sub, err := fs.Sub(defaultFiles, "defaults")
	if err != nil {
		return nil, err
	}
	err = fs.WalkDir(sub, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		raw, err := fs.ReadFile(sub, path)
		if err != nil {
			return err
		}
		return t.add(path, string(raw))
	})
	if err != nil {
		return nil, fmt.Errorf("loading default layouts: %w", err)
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return t, nil
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".html") {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := t.add(filepath.ToSlash(rel), string(raw)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Theme) add(rel, src string) error {
	tpl, err := engine.Parse(src)
	if err != nil {
		return err
	}
	if name, ok := strings.CutPrefix(rel, "shortcodes/"); ok {
		t.shortcodes[strings.TrimSuffix(name, ".html")] = tpl
		return nil
	}
	t.templates[rel] = tpl
	return nil
}

// Template implements engine.Environment.
func (t *Theme) Template(path string) (*engine.Template, bool) {
	if tpl, ok := t.templates[path]; ok {
		return tpl, true
	}
	tpl, ok := t.templates[path+".html"]
	return tpl, ok
}

// ShortcodeTemplate implements engine.Environment.
func (t *Theme) ShortcodeTemplate(name string) (*engine.Template, bool) {
	tpl, ok := t.shortcodes[name]
	return tpl, ok
}

// Funcs implements engine.Environment.
func (t *Theme) Funcs() engine.Funcs { return t.funcs }

// LayoutFor picks the base and main layout for a page: a kind-and-section
// specific layout when the theme ships one, the _default fallback otherwise.
// An empty base means the main layout renders standalone.
func (t *Theme) LayoutFor(p *site.Page) (base, main string, err error) {
	var mains []string
	switch p.Kind {
	case site.KindHome:
		mains = []string{"index.html", "_default/list.html"}
	case site.KindSection:
		mains = []string{p.Section + "/list.html", "_default/list.html"}
	default:
		if p.Section != "" {
			mains = append(mains, p.Section+"/single.html")
		}
		mains = append(mains, "_default/single.html")
	}
	for _, m := range mains {
		if _, ok := t.Template(m); ok {
			main = m
			break
		}
	}
	if main == "" {
		return "", "", fmt.Errorf("no layout found for %s page %s", p.Kind, p.RelPermalink)
	}

	for _, b := range []string{path.Dir(main) + "/baseof.html", "_default/baseof.html"} {
		if _, ok := t.Template(b); ok {
			return b, main, nil
		}
	}
	return "", main, nil
}
