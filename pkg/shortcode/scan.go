package shortcode

import "strings"

// A Call is one shortcode invocation found in content text. Offsets are
// absolute positions in the scanned text and are consumed once, during
// substitution.
type Call struct {
	Name       string
	Named      map[string]string
	Positional []string
	NamedMode  bool
	Inner      string
	Markdown   bool // {{% %}} notation; expanded before Markdown conversion
	SelfClose  bool
	Start, End int

	// Span of Inner within the scanned text; zero for self-closing calls.
	InnerStart, InnerEnd int
}

// Scan finds the top-level shortcode calls in text, in ascending start
// order. Openers inside fenced code blocks are skipped, as are comment-form
// tags. Nested calls are not reported; the executor re-scans inner content.
func Scan(text string) []Call {
	var calls []Call
	fences := fenceRanges(text)
	i := 0
	for i < len(text) {
		open := nextOpener(text, i)
		if open < 0 {
			break
		}
		if inFence(fences, open) {
			i = open + 3
			continue
		}
		markdown := text[open+2] == '%'
		closer := ">}}"
		if markdown {
			closer = "%}}"
		}
		end := strings.Index(text[open+3:], closer)
		if end < 0 {
			break
		}
		end += open + 3
		tag := strings.TrimSpace(text[open+3 : end])
		tagEnd := end + 3

		// Comment form: {{</* ... */>}} renders nothing and nests nothing.
		if strings.HasPrefix(tag, "/*") {
			i = tagEnd
			continue
		}
		// A stray closing tag has no opener to pair with.
		if strings.HasPrefix(tag, "/") {
			i = tagEnd
			continue
		}

		call := Call{Markdown: markdown, Start: open}
		body := tag
		if strings.HasSuffix(body, "/") {
			call.SelfClose = true
			body = strings.TrimSpace(body[:len(body)-1])
		}
		fields := splitFields(body)
		if len(fields) == 0 {
			i = tagEnd
			continue
		}
		call.Name = fields[0]
		call.Named, call.Positional, call.NamedMode = parseArgs(fields[1:])

		if call.SelfClose {
			call.End = tagEnd
			calls = append(calls, call)
			i = tagEnd
			continue
		}

		closeStart, closeEnd := findClosing(text, fences, tagEnd, call.Name)
		if closeStart < 0 {
			// No closing tag; treat as self-closing rather than failing
			// the page.
			call.SelfClose = true
			call.End = tagEnd
			calls = append(calls, call)
			i = tagEnd
			continue
		}
		call.Inner = text[tagEnd:closeStart]
		call.InnerStart, call.InnerEnd = tagEnd, closeStart
		call.End = closeEnd
		calls = append(calls, call)
		i = closeEnd
	}
	return calls
}

// nextOpener returns the position of the next {{< or {{% at or after i.
func nextOpener(text string, i int) int {
	for i < len(text) {
		idx := strings.Index(text[i:], "{{")
		if idx < 0 {
			return -1
		}
		idx += i
		if idx+2 < len(text) && (text[idx+2] == '<' || text[idx+2] == '%') {
			return idx
		}
		i = idx + 2
	}
	return -1
}

// findClosing locates the closing tag paired with an opener of name, depth
// counting same-name openers so nested calls pair with the right closer.
// It returns the closer's start and end offsets, or -1.
func findClosing(text string, fences []span, from int, name string) (int, int) {
	depth := 0
	i := from
	for {
		open := nextOpener(text, i)
		if open < 0 {
			return -1, -1
		}
		if inFence(fences, open) {
			i = open + 3
			continue
		}
		closer := ">}}"
		if text[open+2] == '%' {
			closer = "%}}"
		}
		end := strings.Index(text[open+3:], closer)
		if end < 0 {
			return -1, -1
		}
		end += open + 3
		tag := strings.TrimSpace(text[open+3 : end])
		tagEnd := end + 3

		if strings.HasPrefix(tag, "/") {
			if strings.TrimSpace(tag[1:]) == name {
				if depth == 0 {
					return open, tagEnd
				}
				depth--
			}
		} else if !strings.HasSuffix(tag, "/") && !strings.HasPrefix(tag, "/*") {
			// Another paired opener of the same name nests one level deeper.
			if fields := splitFields(tag); len(fields) > 0 && fields[0] == name {
				depth++
			}
		}
		i = tagEnd
	}
}

// splitFields splits a tag body on whitespace, keeping quoted runs intact.
func splitFields(s string) []string {
	var fields []string
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			i++
			continue
		}
		start := i
		inQuote := byte(0)
		for i < n {
			c := s[i]
			if inQuote != 0 {
				if c == '\\' && i+1 < n {
					i += 2
					continue
				}
				if c == inQuote {
					inQuote = 0
				}
				i++
				continue
			}
			if c == '"' || c == '\'' {
				inQuote = c
				i++
				continue
			}
			if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
				break
			}
			i++
		}
		fields = append(fields, s[start:i])
	}
	return fields
}

// parseArgs interprets argument fields as all-positional or all-named; named
// mode triggers the instant any key= form appears.
func parseArgs(fields []string) (named map[string]string, positional []string, namedMode bool) {
	named = map[string]string{}
	for _, f := range fields {
		if eq := strings.IndexByte(f, '='); eq > 0 && f[0] != '"' && f[0] != '\'' {
			namedMode = true
			named[f[:eq]] = unquoteArg(f[eq+1:])
			continue
		}
		positional = append(positional, unquoteArg(f))
	}
	return named, positional, namedMode
}

func unquoteArg(s string) string {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'') && s[len(s)-1] == q {
			inner := s[1 : len(s)-1]
			inner = strings.ReplaceAll(inner, `\"`, `"`)
			inner = strings.ReplaceAll(inner, `\'`, `'`)
			return inner
		}
	}
	return s
}

type span struct{ start, end int }

// fenceRanges marks the regions covered by triple-backtick or triple-tilde
// code fences in one linear pass over the lines.
func fenceRanges(text string) []span {
	var spans []span
	openAt := -1
	var openMarker byte
	pos := 0
	for pos <= len(text) {
		lineEnd := strings.IndexByte(text[pos:], '\n')
		var line string
		if lineEnd < 0 {
			line = text[pos:]
			lineEnd = len(text)
		} else {
			line = text[pos : pos+lineEnd]
			lineEnd = pos + lineEnd
		}
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			marker := trimmed[0]
			if openAt < 0 {
				openAt = pos
				openMarker = marker
			} else if marker == openMarker {
				spans = append(spans, span{start: openAt, end: lineEnd})
				openAt = -1
			}
		}
		if lineEnd >= len(text) {
			break
		}
		pos = lineEnd + 1
	}
	if openAt >= 0 {
		spans = append(spans, span{start: openAt, end: len(text)})
	}
	return spans
}

func inFence(spans []span, pos int) bool {
	for _, sp := range spans {
		if pos >= sp.start && pos < sp.end {
			return true
		}
	}
	return false
}
