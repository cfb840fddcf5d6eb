package engine

// tokenize splits one action body into words. '|' is always its own token.
// Quoted runs keep their quotes so the evaluator can tell a string literal
// from a bareword; backslash escapes are honored inside quotes.
func tokenize(body string) []string {
	var toks []string
	i, n := 0, len(body)
	for i < n {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c == '|':
			toks = append(toks, "|")
			i++
		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			for j < n {
				if body[j] == '\\' && j+1 < n {
					j += 2
					continue
				}
				if body[j] == quote {
					j++
					break
				}
				j++
			}
			toks = append(toks, body[i:j])
			i = j
		default:
			j := i
			for j < n {
				c := body[j]
				if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '|' || c == '"' || c == '\'' {
					break
				}
				j++
			}
			toks = append(toks, body[i:j])
			i = j
		}
	}
	return toks
}

// unquote strips surrounding quotes from a token and resolves backslash
// escapes. Tokens that are not quoted come back unchanged.
func unquote(tok string) (string, bool) {
	if len(tok) < 2 {
		return tok, false
	}
	q := tok[0]
	if (q != '"' && q != '\'') || tok[len(tok)-1] != q {
		return tok, false
	}
	inner := tok[1 : len(tok)-1]
	var out []byte
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, inner[i])
			}
			continue
		}
		out = append(out, inner[i])
	}
	return string(out), true
}
