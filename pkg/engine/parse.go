package engine

import (
	"fmt"
	"strings"
)

// Parse compiles layout source into a Template. Parse errors are fatal for
// this one template; evaluation never is.
func Parse(src string) (*Template, error) {
	p := &parser{segs: segments(src), defines: map[string][]Node{}}
	nodes, end, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}
	if end != "" {
		return nil, fmt.Errorf("unexpected {{%s}} with no open construct", end)
	}
	return &Template{Nodes: nodes, Defines: p.defines}, nil
}

type parser struct {
	segs    []segment
	i       int
	defines map[string][]Node
}

// parseNodes parses until an end or else keyword listed in until, or EOF.
// It returns the keyword that stopped it, "" at EOF. A stopping keyword not
// listed in until is a fatal parse error.
func (p *parser) parseNodes(until map[string]bool) (nodes []Node, end string, err error) {
	for p.i < len(p.segs) {
		seg := p.segs[p.i]
		p.i++
		if !seg.action {
			if seg.text != "" {
				nodes = append(nodes, &TextNode{Text: seg.text})
			}
			continue
		}

		toks := tokenize(seg.text)
		if len(toks) == 0 {
			continue
		}
		switch toks[0] {
		case "end", "else":
			if !until[toks[0]] {
				return nil, "", fmt.Errorf("unexpected {{%s}} with no open construct", toks[0])
			}
			return nodes, toks[0], nil

		case "define":
			name, err := nameArg(toks, "define")
			if err != nil {
				return nil, "", err
			}
			body, stop, err := p.parseNodes(map[string]bool{"end": true})
			if err != nil {
				return nil, "", err
			}
			if stop != "end" {
				return nil, "", fmt.Errorf("unterminated {{define %q}}", name)
			}
			p.defines[name] = body

		case "block":
			name, err := nameArg(toks, "block")
			if err != nil {
				return nil, "", err
			}
			fallback, stop, err := p.parseNodes(map[string]bool{"end": true})
			if err != nil {
				return nil, "", err
			}
			if stop != "end" {
				return nil, "", fmt.Errorf("unterminated {{block %q}}", name)
			}
			nodes = append(nodes, &BlockNode{Name: name, Context: contextPipe(toks[2:]), Fallback: fallback})

		case "if", "range":
			kw := toks[0]
			if len(toks) < 2 {
				return nil, "", fmt.Errorf("{{%s}} requires an expression", kw)
			}
			cond := splitPipeline(toks[1:])
			body, stop, err := p.parseNodes(map[string]bool{"else": true, "end": true})
			if err != nil {
				return nil, "", err
			}
			var elseBody []Node
			if stop == "else" {
				elseBody, stop, err = p.parseNodes(map[string]bool{"end": true})
				if err != nil {
					return nil, "", err
				}
			}
			if stop != "end" {
				return nil, "", fmt.Errorf("unterminated {{%s}}", kw)
			}
			if kw == "if" {
				nodes = append(nodes, &IfNode{Cond: cond, Then: body, Else: elseBody})
			} else {
				nodes = append(nodes, &RangeNode{Expr: cond, Body: body, Else: elseBody})
			}

		case "partial":
			name, err := nameArg(toks, "partial")
			if err != nil {
				return nil, "", err
			}
			nodes = append(nodes, &PartialNode{Name: name, Context: contextPipe(toks[2:])})

		default:
			nodes = append(nodes, &OutputNode{Pipe: splitPipeline(toks), Escape: true})
		}
	}
	return nodes, "", nil
}

// nameArg returns the unquoted name argument of a keyword action.
func nameArg(toks []string, kw string) (string, error) {
	if len(toks) < 2 {
		return "", fmt.Errorf("{{%s}} requires a name", kw)
	}
	name, _ := unquote(toks[1])
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("{{%s}} requires a name", kw)
	}
	return name, nil
}

// contextPipe builds the optional context pipeline of a block or partial,
// defaulting to the current dot.
func contextPipe(toks []string) Pipeline {
	if len(toks) == 0 {
		return Pipeline{{"."}}
	}
	return splitPipeline(toks)
}

// splitPipeline groups a token list into pipe-separated stages.
func splitPipeline(toks []string) Pipeline {
	var pipe Pipeline
	var stage []string
	for _, t := range toks {
		if t == "|" {
			pipe = append(pipe, stage)
			stage = nil
			continue
		}
		stage = append(stage, t)
	}
	pipe = append(pipe, stage)
	return pipe
}
