package engine

import (
	"fmt"
	"reflect"
	"time"

	"github.com/tsoniclang/tsumo/pkg/site"
)

// Value is an abstract value flowing through the template evaluator. It
// defines string conversion and truthiness semantics. The set of variants is
// closed: resolvePath, Truth, and stringification each switch over it
// exhaustively, so adding a variant is a single-point change in each.
type Value interface {
	String() string
	Truth() bool
}

// NilValue represents the absence of a value. Every failed lookup produces
// it, and every lookup starting from it produces it again.
type NilValue struct{}

func (NilValue) String() string { return "" }
func (NilValue) Truth() bool    { return false }

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }

// NumberValue wraps an integer (64-bit).
type NumberValue int64

func (n NumberValue) String() string { return fmt.Sprintf("%d", int64(n)) }
func (n NumberValue) Truth() bool    { return int64(n) != 0 }

// StringValue wraps plain text. Output nodes escape it for HTML.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(string(s)) > 0 }

// HTMLValue wraps text that is already safe HTML and must not be escaped
// again on output.
type HTMLValue string

func (h HTMLValue) String() string { return string(h) }
func (h HTMLValue) Truth() bool    { return len(string(h)) > 0 }

// DateValue wraps a timestamp, produced by page date fields and consumed by
// the dateFormat builtin.
type DateValue time.Time

func (d DateValue) String() string { return time.Time(d).Format(time.RFC3339) }
func (d DateValue) Truth() bool    { return !time.Time(d).IsZero() }

// ListValue wraps an ordered list of values.
type ListValue []Value

func (l ListValue) String() string {
	out := ""
	for i, v := range l {
		if i > 0 {
			out += " "
		}
		out += v.String()
	}
	return out
}
func (l ListValue) Truth() bool { return len(l) > 0 }

// DictValue wraps a string-keyed dictionary of values. Key lookup through
// resolvePath is case-insensitive.
type DictValue map[string]Value

func (d DictValue) String() string { return "{...}" }
func (d DictValue) Truth() bool    { return len(d) > 0 }

// PageValue is the read view of one content page.
type PageValue struct{ Page *site.Page }

func (p PageValue) String() string {
	if p.Page == nil {
		return ""
	}
	return "Page(" + p.Page.RelPermalink + ")"
}
func (p PageValue) Truth() bool { return p.Page != nil }

// SiteValue is the read view of the whole site.
type SiteValue struct{ Site *site.Site }

func (s SiteValue) String() string {
	if s.Site == nil {
		return ""
	}
	return "Site(" + s.Site.Title + ")"
}
func (s SiteValue) Truth() bool { return s.Site != nil }

// ShortcodeValue is the dot a shortcode template renders against: the call's
// arguments, expanded inner content, and per-name ordinal, plus the owning
// page and site.
type ShortcodeValue struct {
	Name       string
	Inner      string
	Ordinal    int
	NamedMode  bool
	Named      map[string]string
	Positional []string
	Page       *site.Page
	Owner      *site.Site
}

func (s ShortcodeValue) String() string { return "Shortcode(" + s.Name + ")" }
func (s ShortcodeValue) Truth() bool    { return true }

// FromGo converts a plain Go value (front-matter params, data files) into a
// Value, recursing into maps and slices.
func FromGo(v any) Value {
	if v == nil {
		return NilValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return NumberValue(int64(t))
	case int32:
		return NumberValue(int64(t))
	case int64:
		return NumberValue(t)
	case float64:
		return NumberValue(int64(t))
	case time.Time:
		return DateValue(t)
	case []byte:
		return StringValue(string(t))
	case *site.Page:
		return PageValue{Page: t}
	case *site.Site:
		return SiteValue{Site: t}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make(ListValue, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := DictValue{}
			it := rv.MapRange()
			for it.Next() {
				out[it.Key().Interface().(string)] = FromGo(it.Value().Interface())
			}
			return out
		}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NilValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

// pagesValue wraps a page slice as a list of page views.
func pagesValue(pages []*site.Page) ListValue {
	out := make(ListValue, 0, len(pages))
	for _, p := range pages {
		out = append(out, PageValue{Page: p})
	}
	return out
}
