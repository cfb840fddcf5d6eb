package engine

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"sort"
)

// ErrTemplateNotFound reports a layout the environment cannot resolve.
var ErrTemplateNotFound = errors.New("template not found")

// Environment is the collaborator contract the engine renders against. The
// engine never resolves file paths or opens files itself; the host supplies
// compiled templates and the builtin function table.
type Environment interface {
	// Template returns a compiled layout by its resolved name.
	Template(path string) (*Template, bool)
	// ShortcodeTemplate returns the compiled template for a shortcode name.
	ShortcodeTemplate(name string) (*Template, bool)
	// Funcs returns the builtin function table.
	Funcs() Funcs
}

// Render renders mainPath against the scope. When basePath is given and the
// main template captured at least one define, the base template renders
// instead, with the main template's defines as the block override map; this
// is the whole inheritance mechanism. A main template with no defines
// renders its own nodes directly, base or not.
func Render(env Environment, basePath, mainPath string, sc Scope) (string, error) {
	main, ok := env.Template(mainPath)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, mainPath)
	}
	nodes := main.Nodes
	var overrides map[string][]Node
	if basePath != "" && len(main.Defines) > 0 {
		base, ok := env.Template(basePath)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, basePath)
		}
		nodes = base.Nodes
		overrides = main.Defines
	}
	var buf bytes.Buffer
	renderNodes(&buf, nodes, sc, overrides)
	return buf.String(), nil
}

// RenderTemplate renders an already compiled template with an optional
// override map. Shortcode execution uses it with an empty map.
func RenderTemplate(tpl *Template, sc Scope, overrides map[string][]Node) string {
	var buf bytes.Buffer
	renderNodes(&buf, tpl.Nodes, sc, overrides)
	return buf.String()
}

func renderNodes(buf *bytes.Buffer, nodes []Node, sc Scope, overrides map[string][]Node) {
	for _, n := range nodes {
		switch t := n.(type) {
		case *TextNode:
			buf.WriteString(t.Text)

		case *OutputNode:
			v := evalPipeline(t.Pipe, sc)
			if _, isNil := v.(NilValue); isNil {
				continue
			}
			if _, isHTML := v.(HTMLValue); !isHTML && t.Escape {
				buf.WriteString(html.EscapeString(v.String()))
			} else {
				buf.WriteString(v.String())
			}

		case *IfNode:
			if evalPipeline(t.Cond, sc).Truth() {
				renderNodes(buf, t.Then, sc, overrides)
			} else {
				renderNodes(buf, t.Else, sc, overrides)
			}

		case *RangeNode:
			items := iterate(evalPipeline(t.Expr, sc))
			if len(items) == 0 {
				renderNodes(buf, t.Else, sc, overrides)
				continue
			}
			for _, item := range items {
				renderNodes(buf, t.Body, sc.withDot(item), overrides)
			}

		case *BlockNode:
			inner := sc.withDot(evalPipeline(t.Context, sc))
			if body, ok := overrides[t.Name]; ok {
				renderNodes(buf, body, inner, overrides)
			} else {
				renderNodes(buf, t.Fallback, inner, overrides)
			}

		case *PartialNode:
			tpl, ok := sc.Env.Template("partials/" + t.Name)
			if !ok {
				tpl, ok = sc.Env.Template(t.Name)
			}
			if !ok {
				slog.Warn("partial template not found", "name", t.Name)
				continue
			}
			// Partials get a fresh scope rooted at their context; the
			// caller's override map stops here.
			renderNodes(buf, tpl.Nodes, sc.withDot(evalPipeline(t.Context, sc)), nil)
		}
	}
}

// iterate flattens a value for range. Lists iterate in order; dicts iterate
// their values in sorted key order so renders are deterministic.
func iterate(v Value) []Value {
	switch t := v.(type) {
	case ListValue:
		return t
	case DictValue:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Value, 0, len(t))
		for _, k := range keys {
			out = append(out, t[k])
		}
		return out
	case NilValue:
		return nil
	}
	return nil
}
