package engine

import (
	"errors"
	"testing"

	"github.com/tsoniclang/tsumo/pkg/site"
)

type mapEnv struct {
	templates  map[string]*Template
	shortcodes map[string]*Template
	funcs      Funcs
}

func (e *mapEnv) Template(path string) (*Template, bool) {
	tpl, ok := e.templates[path]
	return tpl, ok
}

func (e *mapEnv) ShortcodeTemplate(name string) (*Template, bool) {
	tpl, ok := e.shortcodes[name]
	return tpl, ok
}

func (e *mapEnv) Funcs() Funcs { return e.funcs }

func newTestEnv(templates map[string]string) *mapEnv {
	env := &mapEnv{
		templates: map[string]*Template{},
		funcs: DefaultFuncs(FuncOptions{
			BaseURL:      "https://example.org/sub/",
			LanguageCode: "en",
		}),
	}
	for name, src := range templates {
		tpl, err := Parse(src)
		if err != nil {
			panic(err)
		}
		env.templates[name] = tpl
	}
	return env
}

func renderHelper(t *testing.T, src string, dot Value) string {
	t.Helper()
	tpl, err := Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	sc := Scope{Dot: dot, Env: newTestEnv(nil)}
	return RenderTemplate(tpl, sc, nil)
}

func TestLiteralPassThrough(t *testing.T) {
	cases := []string{
		"Hello, world.\n",
		"no actions at all",
		`shortcodes are content: {{< figure src="a.png" >}} and {{% note %}}x{{% /note %}}`,
	}
	for _, src := range cases {
		got := renderHelper(t, src, NilValue{})
		if got != src {
			t.Fatalf("literal source changed: got %q, want %q", got, src)
		}
	}
}

func TestOutputEscaping(t *testing.T) {
	dot := DictValue{"Title": StringValue("<b>Hi</b>")}
	got := renderHelper(t, "{{ .Title }}", dot)
	want := "&lt;b&gt;Hi&lt;/b&gt;"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = renderHelper(t, `{{ safeHTML .Title }}`, dot)
	want = "<b>Hi</b>"
	if got != want {
		t.Fatalf("safeHTML: got %q, want %q", got, want)
	}
}

func TestHTMLValueNotEscaped(t *testing.T) {
	dot := DictValue{"Body": HTMLValue("<p>hi</p>")}
	got := renderHelper(t, "{{ .Body }}", dot)
	if got != "<p>hi</p>" {
		t.Fatalf("got %q, want %q", got, "<p>hi</p>")
	}
}

func TestWhitespaceTrim(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`A {{- "x" -}} B`, "AxB"},
		{"line\n  {{- \"x\" }}", "linex"},
		{`{{ "a" -}}   {{ "b" }}`, "ab"},
		{`A {{- "x"}}{{- "y" }} B`, "Axy B"},
	}
	for _, tc := range cases {
		got := renderHelper(t, tc.src, NilValue{})
		if got != tc.want {
			t.Fatalf("%q: got %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestCommentAction(t *testing.T) {
	got := renderHelper(t, "a{{ /* remove me */ }}b", NilValue{})
	if got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}

func TestUnterminatedActionIsLiteral(t *testing.T) {
	src := "before {{ .Title"
	got := renderHelper(t, src, NilValue{})
	if got != src {
		t.Fatalf("got %q, want %q", got, src)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"{{end}}",
		"{{else}}",
		"{{if .X}}no end",
		`{{define "x"}}no end`,
		"{{define}}",
		"{{range}}",
	}
	for _, src := range cases {
		if _, err := Parse(src); err == nil {
			t.Fatalf("Parse(%q) succeeded, want error", src)
		}
	}
}

func TestPipelineStages(t *testing.T) {
	got := renderHelper(t, `{{ "AB" | lower | upper }}`, NilValue{})
	if got != "AB" {
		t.Fatalf("got %q, want %q", got, "AB")
	}
}

func TestMissingPathIsEmpty(t *testing.T) {
	got := renderHelper(t, "x{{ .Params.a.b.c }}y", DictValue{})
	if got != "xy" {
		t.Fatalf("got %q, want %q", got, "xy")
	}
}

func TestUnknownFunctionIsEmpty(t *testing.T) {
	got := renderHelper(t, `x{{ bogus "a" }}y`, NilValue{})
	if got != "xy" {
		t.Fatalf("got %q, want %q", got, "xy")
	}
}

func TestRootAndSiteTokens(t *testing.T) {
	s := &site.Site{Title: "The Site"}
	p := &site.Page{Title: "The Page", Site: s}
	tpl, err := Parse(`{{range .Pages}}{{ .Title }}/{{ $.Title }}/{{ site.Title }};{{end}}`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	root := &site.Page{Title: "Root", Pages: []*site.Page{p}, Site: s}
	sc := Scope{Root: root, Dot: PageValue{Page: root}, Site: s, Env: newTestEnv(nil)}
	got := RenderTemplate(tpl, sc, nil)
	want := "The Page/Root/The Site;"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBlockContextRebindsDot(t *testing.T) {
	dot := DictValue{"Inner": StringValue("bound")}
	got := renderHelper(t, `{{block "b" .Inner}}{{.}}{{end}}`, dot)
	if got != "bound" {
		t.Fatalf("got %q, want %q", got, "bound")
	}
}

func TestDictLookupCaseInsensitive(t *testing.T) {
	dot := DictValue{"Author": StringValue("mei")}
	for _, src := range []string{"{{ .Author }}", "{{ .author }}", "{{ .AUTHOR }}"} {
		got := renderHelper(t, src, dot)
		if got != "mei" {
			t.Fatalf("%q: got %q, want %q", src, got, "mei")
		}
	}
}

func TestIfElse(t *testing.T) {
	cases := []struct {
		ok   bool
		want string
	}{
		{true, "Y"},
		{false, "N"},
	}
	for _, tc := range cases {
		dot := DictValue{"Ok": BoolValue(tc.ok)}
		got := renderHelper(t, "{{if .Ok}}Y{{else}}N{{end}}", dot)
		if got != tc.want {
			t.Fatalf("ok=%v: got %q, want %q", tc.ok, got, tc.want)
		}
	}
}

func TestRangeOrder(t *testing.T) {
	dot := DictValue{"Items": ListValue{NumberValue(1), NumberValue(2), NumberValue(3)}}
	got := renderHelper(t, "{{range .Items}}[{{.}}]{{end}}", dot)
	if got != "[1][2][3]" {
		t.Fatalf("got %q, want %q", got, "[1][2][3]")
	}
}

func TestRangeElseRunsOnce(t *testing.T) {
	dot := DictValue{"Items": ListValue{}}
	got := renderHelper(t, "{{range .Items}}x{{else}}empty{{end}}", dot)
	if got != "empty" {
		t.Fatalf("got %q, want %q", got, "empty")
	}
}

func TestRangeDictSortedByKey(t *testing.T) {
	dot := DictValue{"M": DictValue{
		"b": StringValue("2"),
		"a": StringValue("1"),
		"c": StringValue("3"),
	}}
	got := renderHelper(t, "{{range .M}}{{.}}{{end}}", dot)
	if got != "123" {
		t.Fatalf("got %q, want %q", got, "123")
	}
}

func TestBlockFallback(t *testing.T) {
	got := renderHelper(t, `<{{block "main" .}}DEFAULT{{end}}>`, NilValue{})
	if got != "<DEFAULT>" {
		t.Fatalf("got %q, want %q", got, "<DEFAULT>")
	}
}

func TestBlockOverrideViaDefine(t *testing.T) {
	env := newTestEnv(map[string]string{
		"base.html":  `<{{block "main" .}}DEFAULT{{end}}>`,
		"child.html": `{{define "main"}}CHILD{{end}}`,
		"plain.html": `plain body`,
	})
	sc := Scope{Dot: NilValue{}, Env: env}

	got, err := Render(env, "base.html", "child.html", sc)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "<CHILD>" {
		t.Fatalf("got %q, want %q", got, "<CHILD>")
	}

	// A main template with no defines renders standalone.
	got, err = Render(env, "base.html", "plain.html", sc)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "plain body" {
		t.Fatalf("got %q, want %q", got, "plain body")
	}
}

func TestRenderMissingTemplate(t *testing.T) {
	env := newTestEnv(nil)
	_, err := Render(env, "", "nope.html", Scope{Env: env})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
}

func TestPartialGetsFreshScope(t *testing.T) {
	// The child's define overrides the base block but must not leak into
	// the block of the same name inside the partial.
	env := newTestEnv(map[string]string{
		"base.html":       `{{block "x" .}}fallback{{end}}{{partial "p.html" .}}`,
		"child.html":      `{{define "x"}}CHILD{{end}}`,
		"partials/p.html": `{{block "x" .}}P{{end}}`,
	})
	sc := Scope{Dot: NilValue{}, Env: env}
	got, err := Render(env, "base.html", "child.html", sc)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "CHILDP" {
		t.Fatalf("got %q, want %q", got, "CHILDP")
	}
}

func TestMissingPartialSkipped(t *testing.T) {
	env := newTestEnv(map[string]string{
		"main.html": `a{{partial "nope.html" .}}b`,
	})
	got, err := Render(env, "", "main.html", Scope{Dot: NilValue{}, Env: env})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if got != "ab" {
		t.Fatalf("got %q, want %q", got, "ab")
	}
}
