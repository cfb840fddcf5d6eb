package shortcode

import (
	"log/slog"
	"strings"

	"github.com/tsoniclang/tsumo/pkg/engine"
	"github.com/tsoniclang/tsumo/pkg/site"
)

// Expander runs shortcode expansion for one page render. The ordinal counter
// lives for the whole page (both phases share it); the recursion guard is
// fresh per top-level expansion call.
type Expander struct {
	env      engine.Environment
	page     *site.Page
	owner    *site.Site
	ordinals map[string]int
}

func NewExpander(env engine.Environment, page *site.Page, owner *site.Site) *Expander {
	return &Expander{env: env, page: page, owner: owner, ordinals: map[string]int{}}
}

// ExpandPre substitutes the {{% %}} calls. It runs before Markdown
// conversion; the substituted output re-enters Markdown source.
func (e *Expander) ExpandPre(text string) string {
	return e.expand(text, true, map[string]bool{})
}

// ExpandPost substitutes the {{< >}} calls. It runs after Markdown
// conversion; the substituted output is final HTML. The pre/post split is
// load-bearing: reordering it changes what the Markdown converter sees.
func (e *Expander) ExpandPost(text string) string {
	return e.expand(text, false, map[string]bool{})
}

func (e *Expander) expand(text string, markdown bool, guard map[string]bool) string {
	calls := Scan(text)
	// Substitute from the highest start offset down so earlier offsets
	// stay valid while later ones are rewritten.
	for i := len(calls) - 1; i >= 0; i-- {
		call := calls[i]
		if call.Markdown != markdown {
			// A paired call of the other notation can still carry this
			// phase's calls in its inner content; rewrite the inner span
			// in place so nesting composes across notations.
			if !call.SelfClose && call.Inner != "" {
				if inner := e.expand(call.Inner, markdown, guard); inner != call.Inner {
					text = text[:call.InnerStart] + inner + text[call.InnerEnd:]
				}
			}
			continue
		}
		text = text[:call.Start] + e.render(call, markdown, guard) + text[call.End:]
	}
	return text
}

// render produces the replacement text for one call.
func (e *Expander) render(call Call, markdown bool, guard map[string]bool) string {
	if guard[call.Name] {
		return "<!-- shortcode " + call.Name + ": recursive call suppressed -->"
	}
	tpl, ok := e.env.ShortcodeTemplate(call.Name)
	if !ok {
		slog.Warn("shortcode template not found", "name", call.Name, "page", e.page.SourcePath)
		return ""
	}

	guard[call.Name] = true
	defer delete(guard, call.Name)

	ordinal := e.ordinals[call.Name]
	e.ordinals[call.Name]++

	// Inner content expands depth-first, before the outer template renders.
	inner := e.expand(call.Inner, markdown, guard)

	dot := engine.ShortcodeValue{
		Name:       call.Name,
		Inner:      strings.TrimSpace(inner),
		Ordinal:    ordinal,
		NamedMode:  call.NamedMode,
		Named:      call.Named,
		Positional: call.Positional,
		Page:       e.page,
		Owner:      e.owner,
	}
	sc := engine.Scope{Root: e.page, Dot: dot, Site: e.owner, Env: e.env}
	out := engine.RenderTemplate(tpl, sc, nil)

	// The rendered output may itself contain shortcode syntax; expanding it
	// here, with the guard still held, is what defuses self-recursion.
	return e.expand(out, markdown, guard)
}
