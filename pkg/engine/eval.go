package engine

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/tsoniclang/tsumo/pkg/site"
)

// Scope is the evaluation context threaded through one render call: the
// current dot, the page the render is rooted at, the owning site, and the
// environment that resolves templates and builtin functions. Dot changes on
// range/block/partial entry; the rest is stable for one top-level render.
type Scope struct {
	Root *site.Page
	Dot  Value
	Site *site.Site
	Env  Environment
}

// withDot returns a copy of the scope rebound to a new dot.
func (sc Scope) withDot(dot Value) Scope {
	sc.Dot = dot
	return sc
}

// evalPipeline evaluates stages left to right, piping each stage's result
// into the next as a trailing implicit argument.
func evalPipeline(pipe Pipeline, sc Scope) Value {
	var cur Value = NilValue{}
	for i, stage := range pipe {
		cur = evalStage(stage, cur, i > 0, sc)
	}
	return cur
}

func evalStage(toks []string, piped Value, havePiped bool, sc Scope) Value {
	if len(toks) == 0 {
		return NilValue{}
	}
	if len(toks) == 1 && !(havePiped && isBareword(toks[0])) {
		return evalToken(toks[0], sc)
	}
	// A multi-token stage, or a piped-into bareword, is a function call.
	name := toks[0]
	var args []Value
	for _, t := range toks[1:] {
		args = append(args, evalToken(t, sc))
	}
	if havePiped {
		args = append(args, piped)
	}
	fn, ok := sc.Env.Funcs()[name]
	if !ok {
		slog.Warn("unknown template function", "name", name)
		return NilValue{}
	}
	return fn(args)
}

// evalToken resolves a single token to a Value against the scope.
func evalToken(tok string, sc Scope) Value {
	switch {
	case tok == ".":
		return sc.Dot
	case tok == "$":
		return PageValue{Page: sc.Root}
	case strings.HasPrefix(tok, "$."):
		return resolvePath(PageValue{Page: sc.Root}, tok[2:])
	case strings.HasPrefix(tok, "."):
		return resolvePath(sc.Dot, tok[1:])
	case strings.HasPrefix(tok, "site."):
		return resolvePath(SiteValue{Site: sc.Site}, tok[5:])
	}
	if s, ok := unquote(tok); ok {
		return StringValue(s)
	}
	switch tok {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	case "site":
		return SiteValue{Site: sc.Site}
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return NumberValue(n)
	}
	// Bareword standing alone is a literal string.
	return StringValue(tok)
}

func isBareword(tok string) bool {
	if tok == "" || tok == "." || tok == "$" || tok == "true" || tok == "false" {
		return false
	}
	if tok[0] == '.' || tok[0] == '$' || tok[0] == '"' || tok[0] == '\'' {
		return false
	}
	if _, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return false
	}
	return true
}

// resolvePath walks dot-separated segments from a starting value. A missing
// field, an out-of-range index, or any traversal starting from Nil yields
// Nil, never an error: one bad path must not abort a whole site build.
func resolvePath(start Value, path string) Value {
	cur := start
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			continue
		}
		if _, ok := cur.(NilValue); ok {
			return NilValue{}
		}
		cur = lookupField(cur, seg)
	}
	return cur
}

// lookupField resolves one path segment through the fixed per-variant field
// tables.
func lookupField(v Value, key string) Value {
	k := strings.ToLower(key)
	switch t := v.(type) {
	case DictValue:
		if val, ok := t[key]; ok {
			return val
		}
		for dk, val := range t {
			if strings.EqualFold(dk, key) {
				return val
			}
		}
		return NilValue{}

	case ListValue:
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 && idx < len(t) {
			return t[idx]
		}
		return NilValue{}

	case PageValue:
		p := t.Page
		if p == nil {
			return NilValue{}
		}
		switch k {
		case "title":
			return StringValue(p.Title)
		case "slug":
			return StringValue(p.Slug)
		case "section":
			return StringValue(p.Section)
		case "kind":
			return StringValue(p.Kind)
		case "content":
			return HTMLValue(p.Content)
		case "summary":
			return HTMLValue(p.Summary)
		case "rawcontent":
			return StringValue(p.RawContent)
		case "date":
			return DateValue(p.Date)
		case "draft":
			return BoolValue(p.Draft)
		case "weight":
			return NumberValue(int64(p.Weight))
		case "permalink":
			return StringValue(p.Permalink)
		case "relpermalink":
			return StringValue(p.RelPermalink)
		case "params":
			return FromGo(p.Params)
		case "pages":
			return pagesValue(p.Pages)
		case "parent":
			if p.Parent == nil {
				return NilValue{}
			}
			return PageValue{Page: p.Parent}
		case "site":
			return SiteValue{Site: p.Site}
		}
		// Unknown page field falls through to the page params.
		return lookupField(FromGo(p.Params), key)

	case SiteValue:
		s := t.Site
		if s == nil {
			return NilValue{}
		}
		switch k {
		case "title":
			return StringValue(s.Title)
		case "baseurl":
			return StringValue(s.BaseURL)
		case "languagecode":
			return StringValue(s.LanguageCode)
		case "params":
			return FromGo(s.Params)
		case "data":
			return FromGo(s.Data)
		case "pages":
			return pagesValue(s.Pages)
		case "regularpages":
			return pagesValue(s.RegularPages)
		case "home":
			if s.Home == nil {
				return NilValue{}
			}
			return PageValue{Page: s.Home}
		}
		return NilValue{}

	case ShortcodeValue:
		switch k {
		case "name":
			return StringValue(t.Name)
		case "inner":
			return HTMLValue(t.Inner)
		case "ordinal":
			return NumberValue(int64(t.Ordinal))
		case "params":
			if t.NamedMode {
				d := DictValue{}
				for pk, pv := range t.Named {
					d[pk] = StringValue(pv)
				}
				return d
			}
			l := make(ListValue, 0, len(t.Positional))
			for _, pv := range t.Positional {
				l = append(l, StringValue(pv))
			}
			return l
		case "page":
			return PageValue{Page: t.Page}
		case "site":
			return SiteValue{Site: t.Owner}
		}
		// Bare field names reach named parameters directly.
		if pv, ok := t.Named[key]; ok {
			return StringValue(pv)
		}
		for pk, pv := range t.Named {
			if strings.EqualFold(pk, key) {
				return StringValue(pv)
			}
		}
		return NilValue{}
	}
	return NilValue{}
}
