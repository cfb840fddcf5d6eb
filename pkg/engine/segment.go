package engine

import "strings"

// The segmenter splits raw template source into literal text and {{ }} action
// segments. Shortcode openers ({{< and {{%) are content syntax, not layout
// syntax, and pass through as literal text so a template can emit them.

type segment struct {
	action bool
	text   string
}

// segments scans src once and returns its segments in order. Whitespace trim
// markers are applied here: a leading '-' inside a delimiter trims trailing
// whitespace off the preceding literal, a trailing '-' skips whitespace that
// follows the action. Comment actions (/* ... */) yield no segment. An
// unterminated {{ is not an error; the remainder becomes one literal segment.
func segments(src string) []segment {
	var segs []segment
	var lit strings.Builder
	i, n := 0, len(src)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i < n {
		open := strings.Index(src[i:], "{{")
		if open < 0 {
			lit.WriteString(src[i:])
			break
		}
		open += i
		// Shortcode notation is literal text to the layout parser.
		if open+2 < n && (src[open+2] == '<' || src[open+2] == '%') {
			lit.WriteString(src[i : open+3])
			i = open + 3
			continue
		}
		close := strings.Index(src[open+2:], "}}")
		if close < 0 {
			// Unterminated action; keep the rest as literal text.
			lit.WriteString(src[i:])
			break
		}
		close += open + 2
		lit.WriteString(src[i:open])
		body := src[open+2 : close]
		i = close + 2

		if strings.HasPrefix(body, "-") {
			body = body[1:]
			if lit.Len() > 0 {
				trimmed := strings.TrimRight(lit.String(), " \t\r\n")
				lit.Reset()
				lit.WriteString(trimmed)
			} else if len(segs) > 0 && !segs[len(segs)-1].action {
				segs[len(segs)-1].text = strings.TrimRight(segs[len(segs)-1].text, " \t\r\n")
			}
		}
		trimAfter := false
		if strings.HasSuffix(body, "-") {
			body = body[:len(body)-1]
			trimAfter = true
		}
		flush()

		body = strings.TrimSpace(body)
		if !(strings.HasPrefix(body, "/*") && strings.HasSuffix(body, "*/")) {
			segs = append(segs, segment{action: true, text: body})
		}

		if trimAfter {
			for i < n && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n') {
				i++
			}
		}
	}
	flush()
	return segs
}
