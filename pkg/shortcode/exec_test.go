package shortcode

import (
	"strings"
	"testing"

	"github.com/tsoniclang/tsumo/pkg/engine"
	"github.com/tsoniclang/tsumo/pkg/site"
)

type testEnv struct {
	shortcodes map[string]*engine.Template
	funcs      engine.Funcs
}

func (e *testEnv) Template(path string) (*engine.Template, bool) { return nil, false }

func (e *testEnv) ShortcodeTemplate(name string) (*engine.Template, bool) {
	tpl, ok := e.shortcodes[name]
	return tpl, ok
}

func (e *testEnv) Funcs() engine.Funcs { return e.funcs }

func newExpander(t *testing.T, shortcodes map[string]string) *Expander {
	t.Helper()
	env := &testEnv{
		shortcodes: map[string]*engine.Template{},
		funcs:      engine.DefaultFuncs(engine.FuncOptions{BaseURL: "https://example.org/"}),
	}
	for name, src := range shortcodes {
		tpl, err := engine.Parse(src)
		if err != nil {
			t.Fatalf("parse shortcode %s: %v", name, err)
		}
		env.shortcodes[name] = tpl
	}
	page := &site.Page{Title: "Test Page", SourcePath: "test.md"}
	return NewExpander(env, page, &site.Site{Title: "Test Site"})
}

func TestExpandSelfClosing(t *testing.T) {
	e := newExpander(t, map[string]string{
		"img": `<img src="{{ .Params.src }}">`,
	})
	got := e.ExpandPost(`see {{< img src="a.png" />}} here`)
	want := `see <img src="a.png"> here`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandInner(t *testing.T) {
	e := newExpander(t, map[string]string{
		"note": `<aside>{{ .Inner }}</aside>`,
	})
	got := e.ExpandPost(`{{< note >}}  keep this  {{< /note >}}`)
	want := `<aside>keep this</aside>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExpandOrdinals(t *testing.T) {
	e := newExpander(t, map[string]string{
		"n": `[{{ .Ordinal }}]`,
	})
	got := e.ExpandPost(`{{< n />}}{{< n />}}{{< n />}}`)
	if got != "[0][1][2]" {
		t.Fatalf("got %q, want %q", got, "[0][1][2]")
	}
}

func TestOrdinalsSpanPhases(t *testing.T) {
	e := newExpander(t, map[string]string{
		"n": `[{{ .Ordinal }}]`,
	})
	pre := e.ExpandPre(`{{% n /%}}`)
	post := e.ExpandPost(`{{< n />}}`)
	if pre != "[0]" || post != "[1]" {
		t.Fatalf("pre %q post %q, want [0] and [1]", pre, post)
	}
}

func TestPhaseSeparation(t *testing.T) {
	e := newExpander(t, map[string]string{
		"md":   `MD`,
		"html": `HTML`,
	})
	text := `a {{% md /%}} b {{< html />}} c`

	pre := e.ExpandPre(text)
	want := `a MD b {{< html />}} c`
	if pre != want {
		t.Fatalf("pre: got %q, want %q", pre, want)
	}

	post := e.ExpandPost(pre)
	want = `a MD b HTML c`
	if post != want {
		t.Fatalf("post: got %q, want %q", post, want)
	}
}

func TestRecursionGuard(t *testing.T) {
	e := newExpander(t, map[string]string{
		"loop": `A{{< loop />}}`,
	})
	got := e.ExpandPost(`{{< loop />}}`)
	want := "A<!-- shortcode loop: recursive call suppressed -->"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if strings.Count(got, "suppressed") != 1 {
		t.Fatalf("want exactly one suppression marker, got %q", got)
	}
}

func TestMutualRecursionAllowedOnceEach(t *testing.T) {
	e := newExpander(t, map[string]string{
		"a": `A{{< b />}}`,
		"b": `B{{< a />}}`,
	})
	got := e.ExpandPost(`{{< a />}}`)
	want := "AB<!-- shortcode a: recursive call suppressed -->"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestGuardResetsBetweenSiblings(t *testing.T) {
	e := newExpander(t, map[string]string{
		"x": `X`,
	})
	got := e.ExpandPost(`{{< x />}}{{< x />}}`)
	if got != "XX" {
		t.Fatalf("got %q, want %q", got, "XX")
	}
}

func TestNestedDifferentNames(t *testing.T) {
	e := newExpander(t, map[string]string{
		"outer": `(out {{ .Inner }})`,
		"inner": `IN`,
	})
	got := e.ExpandPost(`{{< outer >}}{{< inner />}}{{< /outer >}}`)
	want := `(out IN)`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMarkdownCallInsideAngleCall(t *testing.T) {
	e := newExpander(t, map[string]string{
		"outer": `<div>{{ .Inner }}</div>`,
		"md":    `MD`,
	})
	pre := e.ExpandPre(`{{< outer >}}{{% md /%}}{{< /outer >}}`)
	want := `{{< outer >}}MD{{< /outer >}}`
	if pre != want {
		t.Fatalf("pre = %q, want %q", pre, want)
	}
	post := e.ExpandPost(pre)
	if post != `<div>MD</div>` {
		t.Fatalf("post = %q, want %q", post, `<div>MD</div>`)
	}
}

func TestAngleCallInsideMarkdownCall(t *testing.T) {
	e := newExpander(t, map[string]string{
		"wrap": `[{{ .Inner }}]`,
		"html": `H`,
	})
	pre := e.ExpandPre(`{{% wrap %}}{{< html />}}{{% /wrap %}}`)
	want := `[{{< html />}}]`
	if pre != want {
		t.Fatalf("pre = %q, want %q", pre, want)
	}
	post := e.ExpandPost(pre)
	if post != `[H]` {
		t.Fatalf("post = %q, want %q", post, `[H]`)
	}
}

func TestMissingShortcodeRemoved(t *testing.T) {
	e := newExpander(t, nil)
	got := e.ExpandPost(`a{{< nope />}}b`)
	if got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func TestFencedCodeUntouched(t *testing.T) {
	e := newExpander(t, map[string]string{
		"img": `<img>`,
	})
	text := "intro\n```\n{{< img />}}\n```\noutro"
	got := e.ExpandPost(text)
	if got != text {
		t.Fatalf("fenced content changed: got %q", got)
	}
}

func TestPageAndSiteAccess(t *testing.T) {
	e := newExpander(t, map[string]string{
		"who": `{{ .Page.Title }} on {{ .Site.Title }}`,
	})
	got := e.ExpandPost(`{{< who />}}`)
	want := "Test Page on Test Site"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
