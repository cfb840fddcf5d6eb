package engine

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/goodsign/monday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Func is one builtin template function. Builtins are arity-tolerant: a
// missing or unusable argument degrades to the empty value instead of
// aborting the render.
type Func func(args []Value) Value

// Funcs is the fixed builtin function table an Environment supplies.
type Funcs map[string]Func

// FuncOptions carries the site-level settings some builtins close over.
type FuncOptions struct {
	BaseURL      string
	LanguageCode string
}

// DefaultFuncs builds the builtin table for one site.
func DefaultFuncs(opts FuncOptions) Funcs {
	locale := localeFor(opts.LanguageCode)
	titler := cases.Title(language.English)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	return Funcs{
		"upper": func(args []Value) Value {
			return StringValue(strings.ToUpper(argString(args, 0)))
		},
		"lower": func(args []Value) Value {
			return StringValue(strings.ToLower(argString(args, 0)))
		},
		"title": func(args []Value) Value {
			return StringValue(titler.String(argString(args, 0)))
		},
		"trim": func(args []Value) Value {
			return StringValue(strings.TrimSpace(argString(args, 0)))
		},
		"len": func(args []Value) Value {
			if len(args) == 0 {
				return NumberValue(0)
			}
			switch t := args[0].(type) {
			case ListValue:
				return NumberValue(int64(len(t)))
			case DictValue:
				return NumberValue(int64(len(t)))
			case StringValue:
				return NumberValue(int64(len(t)))
			case HTMLValue:
				return NumberValue(int64(len(t)))
			}
			return NumberValue(0)
		},
		"default": func(args []Value) Value {
			if len(args) == 0 {
				return NilValue{}
			}
			fallback := args[0]
			var val Value = NilValue{}
			if len(args) > 1 {
				val = args[1]
			}
			if val.Truth() {
				return val
			}
			return fallback
		},
		"relURL": func(args []Value) Value {
			return StringValue(relURL(opts.BaseURL, argString(args, 0)))
		},
		"absURL": func(args []Value) Value {
			return StringValue(absURL(opts.BaseURL, argString(args, 0)))
		},
		"dateFormat": func(args []Value) Value {
			layout := argString(args, 0)
			t, ok := argTime(args, 1)
			if !ok || layout == "" {
				return StringValue("")
			}
			return StringValue(monday.Format(t, layout, locale))
		},
		"safeHTML": func(args []Value) Value {
			return HTMLValue(argString(args, 0))
		},
		"markdownify": func(args []Value) Value {
			var buf bytes.Buffer
			if err := md.Convert([]byte(argString(args, 0)), &buf); err != nil {
				return HTMLValue("")
			}
			out := strings.TrimSpace(buf.String())
			// A single wrapped paragraph renders inline.
			if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
				out = out[len("<p>") : len(out)-len("</p>")]
			}
			return HTMLValue(out)
		},
		"truncate": func(args []Value) Value {
			n := argInt(args, 0)
			s := argString(args, 1)
			if n <= 0 {
				return StringValue("")
			}
			runes := []rune(s)
			if len(runes) <= n {
				return StringValue(s)
			}
			return StringValue(string(runes[:n]) + " …")
		},
		"replace": func(args []Value) Value {
			return StringValue(strings.ReplaceAll(argString(args, 2), argString(args, 0), argString(args, 1)))
		},
		"urlize": func(args []Value) Value {
			return StringValue(urlize(argString(args, 0)))
		},
	}
}

func argString(args []Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return args[i].String()
}

func argInt(args []Value, i int) int {
	if i >= len(args) {
		return 0
	}
	if n, ok := args[i].(NumberValue); ok {
		return int(n)
	}
	return 0
}

func argTime(args []Value, i int) (time.Time, bool) {
	if i >= len(args) {
		return time.Time{}, false
	}
	switch t := args[i].(type) {
	case DateValue:
		return time.Time(t), true
	case StringValue:
		if parsed, err := dateparse.ParseAny(string(t)); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func relURL(baseURL, ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	p := strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(ref, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func absURL(baseURL, ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ref
	}
	return strings.TrimSuffix(base.Scheme+"://"+base.Host, "/") + relURL(baseURL, ref)
}

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

// localeFor maps a site language code to a monday locale for date output.
// Unknown codes fall back to US English.
func localeFor(code string) monday.Locale {
	c := strings.ToLower(strings.ReplaceAll(code, "-", "_"))
	locales := map[string]monday.Locale{
		"en":    monday.LocaleEnUS,
		"en_us": monday.LocaleEnUS,
		"en_gb": monday.LocaleEnGB,
		"de":    monday.LocaleDeDE,
		"de_de": monday.LocaleDeDE,
		"fr":    monday.LocaleFrFR,
		"fr_fr": monday.LocaleFrFR,
		"es":    monday.LocaleEsES,
		"es_es": monday.LocaleEsES,
		"it":    monday.LocaleItIT,
		"it_it": monday.LocaleItIT,
		"nl":    monday.LocaleNlNL,
		"nl_nl": monday.LocaleNlNL,
		"pt":    monday.LocalePtPT,
		"pt_br": monday.LocalePtBR,
		"ja":    monday.LocaleJaJP,
		"ja_jp": monday.LocaleJaJP,
	}
	if l, ok := locales[c]; ok {
		return l
	}
	return monday.LocaleEnUS
}
