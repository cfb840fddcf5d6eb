package engine

// Node is any AST node in a parsed layout template.
type Node interface {
	node()
}

// Pipeline is a pipe-separated sequence of evaluation stages, each stage an
// ordered token list. Stages evaluate left to right; each stage's result is
// passed into the next as a trailing implicit argument.
type Pipeline [][]string

// Template is a compiled layout: the root node sequence plus the table of
// named define bodies captured anywhere during the parse. A Template is
// read-only after construction and safe to share across renders.
type Template struct {
	Nodes   []Node
	Defines map[string][]Node
}

// TextNode is literal text between actions.
type TextNode struct {
	Text string
}

func (*TextNode) node() {}

// OutputNode writes the value of a pipeline: {{ expr }}. When Escape is set
// the result is HTML-escaped unless it is already an HTMLValue.
type OutputNode struct {
	Pipe   Pipeline
	Escape bool
}

func (*OutputNode) node() {}

// IfNode is {{if expr}} ... {{else}} ... {{end}}.
type IfNode struct {
	Cond Pipeline
	Then []Node
	Else []Node
}

func (*IfNode) node() {}

// RangeNode is {{range expr}} ... {{else}} ... {{end}}. The else body runs
// once when the collection is empty.
type RangeNode struct {
	Expr Pipeline
	Body []Node
	Else []Node
}

func (*RangeNode) node() {}

// BlockNode is an overridable named region: {{block "name" ctx}} fallback
// {{end}}. At render time the active override map wins over the fallback.
type BlockNode struct {
	Name     string
	Context  Pipeline
	Fallback []Node
}

func (*BlockNode) node() {}

// PartialNode includes a separately compiled template with a fresh scope
// rooted at the context expression: {{partial "name" ctx}}.
type PartialNode struct {
	Name    string
	Context Pipeline
}

func (*PartialNode) node() {}
