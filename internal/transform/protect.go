package transform

import (
	"regexp"
	"strings"
)

var (
	codeSpanRe    = regexp.MustCompile("`[^`\n]+`")
	labeledLinkRe = regexp.MustCompile(`\[([^\[\]\n]+)\]\(\[\[([^\[\]\n]+)\]\]\)`)
	wikilinkRe    = regexp.MustCompile(`([!#]?)\[\[([^\[\]\n]+)\]\]`)
	displayMathRe = regexp.MustCompile(`(?s)\$\$.+?\$\$`)
	currencyRe    = regexp.MustCompile(`^\d[\d,]*(?:\.\d+)?(?:[kKmMbB](?:n|illion)?)?`)
)

// protectSpans replaces code, query macros, wikilinks and math with tokens.
// Links are protected before math so a "$" inside a page name cannot open a
// formula, and query macros before links so their arguments are not
// resolved as references.
func protectSpans(c *Context, text string) string {
	text = protectFences(c, text)
	text = codeSpanRe.ReplaceAllStringFunc(text, func(s string) string {
		return c.protect(spanCode, s)
	})
	text = queryRe.ReplaceAllStringFunc(text, func(s string) string {
		return c.protect(spanQuery, s)
	})
	text = protectLinks(c, text)
	text = displayMathRe.ReplaceAllStringFunc(text, func(s string) string {
		return c.protect(spanMath, s)
	})
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "$") {
			lines[i] = protectInlineMath(c, line)
		}
	}
	return strings.Join(lines, "\n")
}

// protectFences collapses each fenced code block into one token that starts
// where the opening fence starts. An unclosed fence is left as text.
func protectFences(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		col := fenceStart(line)
		if col < 0 {
			out = append(out, line)
			continue
		}
		end := -1
		for j := i + 1; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), "```") {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, line)
			continue
		}
		block := append([]string{line[col:]}, lines[i+1:end+1]...)
		out = append(out, line[:col]+c.protect(spanCode, strings.Join(block, "\n")))
		i = end
	}
	return strings.Join(out, "\n")
}

// fenceStart returns the column of an opening fence on a line that is
// either bare or a bullet, or -1.
func fenceStart(line string) int {
	t := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(t, "- ") {
		t = strings.TrimLeft(t[2:], " \t")
	}
	if !strings.HasPrefix(t, "```") {
		return -1
	}
	return len(line) - len(t)
}

func protectLinks(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, "[[") {
			continue
		}
		inTable := strings.HasPrefix(strings.TrimLeft(strings.TrimLeft(line, " \t"), "- "), "|")
		line = labeledLinkRe.ReplaceAllStringFunc(line, func(s string) string {
			m := labeledLinkRe.FindStringSubmatch(s)
			return c.protectSpan(span{kind: spanLink, src: s, text: s, ref: m[2], label: m[1], inTable: inTable})
		})
		lines[i] = wikilinkRe.ReplaceAllStringFunc(line, func(s string) string {
			m := wikilinkRe.FindStringSubmatch(s)
			ref, label := m[2], ""
			if j := strings.Index(ref, "|"); j >= 0 {
				ref, label = ref[:j], ref[j+1:]
			}
			if strings.TrimSpace(ref) == "" {
				return s
			}
			return c.protectSpan(span{kind: spanLink, src: s, text: s, ref: ref, label: label, embed: m[1] == "!", inTable: inTable})
		})
	}
	return strings.Join(lines, "\n")
}

// protectInlineMath protects $...$ spans. An opener must be followed by a
// non-space that does not start a currency amount; a closer must follow a
// non-space and must not precede a digit.
func protectInlineMath(c *Context, line string) string {
	var b strings.Builder
	for i := 0; i < len(line); {
		if line[i] != '$' || (i > 0 && line[i-1] == '\\') {
			b.WriteByte(line[i])
			i++
			continue
		}
		if i+1 < len(line) && line[i+1] == '$' {
			b.WriteString("$$")
			i += 2
			continue
		}
		if j := mathClose(line, i); j > 0 {
			b.WriteString(c.protect(spanMath, line[i:j+1]))
			i = j + 1
			continue
		}
		b.WriteByte('$')
		i++
	}
	return b.String()
}

func mathClose(line string, open int) int {
	if open+1 >= len(line) || isSpace(line[open+1]) || isCurrency(line[open+1:]) {
		return -1
	}
	for j := open + 2; j < len(line); j++ {
		if line[j] != '$' || line[j-1] == '\\' {
			continue
		}
		if j+1 < len(line) && line[j+1] == '$' {
			return -1
		}
		if isSpace(line[j-1]) || (j+1 < len(line) && isDigit(line[j+1])) {
			continue
		}
		return j
	}
	return -1
}

// isCurrency reports whether s (the text after a "$") reads as an amount
// such as "100", "1,200.50" or "5k", followed by a boundary.
func isCurrency(s string) bool {
	m := currencyRe.FindString(s)
	if m == "" {
		return false
	}
	if len(m) == len(s) {
		return true
	}
	return strings.ContainsRune(" \t.,;:!?)]}/-", rune(s[len(m)]))
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
