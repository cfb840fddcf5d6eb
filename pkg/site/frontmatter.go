package site

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"
)

const fmDelim = "---"

// splitFrontMatter separates a leading YAML front-matter document from the
// Markdown body. A file without front matter is all body.
func splitFrontMatter(src string) (meta map[string]any, body string, err error) {
	if !strings.HasPrefix(src, fmDelim+"\n") && src != fmDelim {
		return nil, src, nil
	}
	// A file that is nothing but the opening delimiter never closes.
	if len(src) <= len(fmDelim)+1 {
		return nil, "", fmt.Errorf("unterminated front matter")
	}
	rest := src[len(fmDelim)+1:]
	end := strings.Index(rest, "\n"+fmDelim)
	if end < 0 {
		return nil, "", fmt.Errorf("unterminated front matter")
	}
	doc := rest[:end]
	body = rest[end+1+len(fmDelim):]
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	meta = map[string]any{}
	if err := yaml.Unmarshal([]byte(doc), &meta); err != nil {
		return nil, "", fmt.Errorf("decoding front matter: %w", err)
	}
	return meta, body, nil
}

// applyFrontMatter moves the well-known keys into page fields and leaves the
// rest in Params. Dates accept any common notation.
func applyFrontMatter(p *Page, meta map[string]any) error {
	p.Params = map[string]any{}
	for key, val := range meta {
		switch strings.ToLower(key) {
		case "title":
			p.Title = fmt.Sprintf("%v", val)
		case "slug":
			p.Slug = fmt.Sprintf("%v", val)
		case "draft":
			if b, ok := val.(bool); ok {
				p.Draft = b
			}
		case "weight":
			switch n := val.(type) {
			case int:
				p.Weight = n
			case float64:
				p.Weight = int(n)
			}
		case "summary":
			p.Summary = fmt.Sprintf("%v", val)
		case "date":
			t, err := dateparse.ParseAny(fmt.Sprintf("%v", val))
			if err != nil {
				return fmt.Errorf("parsing date %q: %w", val, err)
			}
			p.Date = t
		default:
			p.Params[key] = val
		}
	}
	return nil
}
