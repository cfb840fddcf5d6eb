// Package build renders a loaded site to static HTML on disk.
//
// Building runs in two passes. The first pass turns each page's raw
// Markdown into HTML content, expanding shortcodes around the Markdown
// step. The second pass applies layouts and writes the output files.
// Content for every page must exist before any layout runs, because
// layouts may reach across pages (section lists, .Pages ranges).
package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tsoniclang/tsumo/pkg/engine"
	"github.com/tsoniclang/tsumo/pkg/shortcode"
	"github.com/tsoniclang/tsumo/pkg/site"
	"github.com/tsoniclang/tsumo/pkg/theme"
)

// Builder renders a site through a theme into an output directory.
type Builder struct {
	Site      *site.Site
	Theme     *theme.Theme
	OutputDir string

	// Workers bounds per-pass parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Build runs both passes over every page of the site.
func (b *Builder) Build(ctx context.Context) error {
	if err := b.eachPage(ctx, b.renderContent); err != nil {
		return err
	}
	if err := b.eachPage(ctx, b.writePage); err != nil {
		return err
	}
	slog.Info("site built", "pages", len(b.Site.Pages), "output", b.OutputDir)
	return nil
}

// eachPage applies fn to every page with a bounded worker pool. The
// first error wins; remaining pages are still drained.
func (b *Builder) eachPage(ctx context.Context, fn func(*site.Page) error) error {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	pages := make(chan *site.Page)
	errCh := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range pages {
				if err := fn(p); err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
			}
		}()
	}

	for _, p := range b.Site.Pages {
		select {
		case <-ctx.Done():
			close(pages)
			wg.Wait()
			return ctx.Err()
		case pages <- p:
		}
	}
	close(pages)
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// renderContent fills p.Content and p.Summary from the page's raw
// Markdown. Percent-form shortcodes expand before the Markdown
// conversion, angle-form shortcodes after it.
func (b *Builder) renderContent(p *site.Page) error {
	exp := shortcode.NewExpander(b.Theme, p, b.Site)

	src := exp.ExpandPre(p.RawContent)
	// The Markdown converter would escape the {{< >}} syntax, so those
	// calls hide behind opaque tokens while it runs.
	src, saved := protectCalls(src)
	rendered, err := renderMarkdown(src)
	if err != nil {
		return fmt.Errorf("page %s: %w", p.SourcePath, err)
	}
	p.Content = exp.ExpandPost(restoreCalls(rendered, saved))

	if p.Summary == "" {
		p.Summary = summarize(p.Content)
	}
	return nil
}

// writePage applies the page's layout and writes index.html under the
// page's permalink path.
func (b *Builder) writePage(p *site.Page) error {
	basePath, mainPath, err := b.Theme.LayoutFor(p)
	if err != nil {
		return fmt.Errorf("page %s: %w", p.SourcePath, err)
	}

	sc := engine.Scope{
		Root: p,
		Dot:  engine.PageValue{Page: p},
		Site: b.Site,
		Env:  b.Theme,
	}
	out, err := engine.Render(b.Theme, basePath, mainPath, sc)
	if err != nil {
		return fmt.Errorf("page %s: %w", p.SourcePath, err)
	}

	dir := filepath.Join(b.OutputDir, filepath.FromSlash(p.RelPermalink))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("page %s: %w", p.SourcePath, err)
	}
	dest := filepath.Join(dir, "index.html")
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		return fmt.Errorf("page %s: %w", p.SourcePath, err)
	}
	slog.Debug("wrote page", "path", dest)
	return nil
}

// protectCalls swaps each HTML-notation shortcode call for a token the
// Markdown converter passes through as plain text. Whole call spans are
// saved, nested calls included, so the expander sees them intact later.
func protectCalls(text string) (string, map[string]string) {
	calls := shortcode.Scan(text)
	saved := map[string]string{}
	prefix := tokenPrefix(text)
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		if call.Markdown {
			continue
		}
		token := fmt.Sprintf("%s%dZZ", prefix, i)
		saved[token] = text[call.Start:call.End]
		text = text[:call.Start] + token + text[call.End:]
	}
	return text, saved
}

// tokenPrefix picks a placeholder prefix absent from the source, so page
// text that happens to contain token-shaped runs cannot misdirect the
// restore. Tokens built from the prefix stay unique: each ends in "ZZ"
// right after its decimal index.
func tokenPrefix(text string) string {
	prefix := "ZZtsumosc"
	for n := 0; strings.Contains(text, prefix); n++ {
		prefix = fmt.Sprintf("ZZtsumo%dsc", n)
	}
	return prefix
}

func restoreCalls(text string, saved map[string]string) string {
	for token, call := range saved {
		text = strings.Replace(text, token, call, 1)
	}
	return text
}

// summarize extracts the first paragraph's text as a plain summary.
func summarize(content string) string {
	start := strings.Index(content, "<p>")
	if start < 0 {
		return strings.TrimSpace(stripTags(content))
	}
	rest := content[start+len("<p>"):]
	if end := strings.Index(rest, "</p>"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(stripTags(rest))
}

func stripTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
