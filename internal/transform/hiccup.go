package transform

import (
	"html"
	"strings"
)

var voidTags = map[string]bool{"br": true, "hr": true, "img": true, "input": true}

// rewriteHiccup converts hiccup vectors opening the content of a line
// ("[:div ...]" or "- [:div ...]") to protected HTML. A vector continues over
// following lines until its brackets balance. Anything that does not parse
// is left untouched.
func rewriteHiccup(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		start := hiccupStart(line)
		if start < 0 {
			out = append(out, line)
			continue
		}
		src, end := line[start:], i
		for bracketDepth(src) > 0 && end+1 < len(lines) {
			end++
			src += " " + strings.TrimSpace(lines[end])
		}
		h := &hiccup{s: src}
		markup, ok := h.vector()
		if !ok {
			out = append(out, line)
			continue
		}
		out = append(out, line[:start]+c.protect(spanRaw, markup)+src[h.pos:])
		i = end
	}
	return strings.Join(out, "\n")
}

// hiccupStart returns where a vector opens on line, or -1.
func hiccupStart(line string) int {
	start := len(line) - len(strings.TrimLeft(line, " \t"))
	if strings.HasPrefix(line[start:], "- ") {
		start += 2
	}
	if !strings.HasPrefix(line[start:], "[:") {
		return -1
	}
	return start
}

// bracketDepth counts unclosed "[" outside string literals.
func bracketDepth(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '"':
			inString = !inString
		case inString:
		case s[i] == '[':
			depth++
		case s[i] == ']':
			depth--
		}
	}
	return depth
}

type hiccup struct {
	s   string
	pos int
}

func (h *hiccup) vector() (string, bool) {
	if !strings.HasPrefix(h.s[h.pos:], "[:") {
		return "", false
	}
	h.pos += 2
	tag := h.symbol()
	if tag == "" {
		return "", false
	}
	name, attrs := splitTag(tag)

	h.skipSpace()
	if h.pos < len(h.s) && h.s[h.pos] == '{' {
		extra, ok := h.attrs()
		if !ok {
			return "", false
		}
		attrs += extra
	}

	var children strings.Builder
	for {
		h.skipSpace()
		if h.pos >= len(h.s) {
			return "", false
		}
		switch h.s[h.pos] {
		case ']':
			h.pos++
			if voidTags[name] {
				return "<" + name + attrs + ">", true
			}
			return "<" + name + attrs + ">" + children.String() + "</" + name + ">", true
		case '"':
			str, ok := h.str()
			if !ok {
				return "", false
			}
			children.WriteString(html.EscapeString(str))
		case '[':
			child, ok := h.vector()
			if !ok {
				return "", false
			}
			children.WriteString(child)
		case tokenMark[0]:
			// Protected spans such as links stay as tokens for restore.
			end := strings.IndexByte(h.s[h.pos+1:], tokenMark[0])
			if end < 0 || !tokenRe.MatchString(h.s[h.pos:h.pos+end+2]) {
				return "", false
			}
			children.WriteString(h.s[h.pos : h.pos+end+2])
			h.pos += end + 2
		default:
			return "", false
		}
	}
}

// attrs parses {:key "value" :key2 value2}.
func (h *hiccup) attrs() (string, bool) {
	h.pos++
	var b strings.Builder
	for {
		h.skipSpace()
		if h.pos >= len(h.s) {
			return "", false
		}
		if h.s[h.pos] == '}' {
			h.pos++
			return b.String(), true
		}
		if h.s[h.pos] != ':' {
			return "", false
		}
		h.pos++
		key := h.symbol()
		if key == "" {
			return "", false
		}
		h.skipSpace()
		var value string
		if h.pos < len(h.s) && h.s[h.pos] == '"' {
			v, ok := h.str()
			if !ok {
				return "", false
			}
			value = v
		} else {
			value = h.symbol()
		}
		b.WriteString(" " + key + `="` + html.EscapeString(value) + `"`)
	}
}

func (h *hiccup) str() (string, bool) {
	end := strings.IndexByte(h.s[h.pos+1:], '"')
	if end < 0 {
		return "", false
	}
	v := h.s[h.pos+1 : h.pos+1+end]
	h.pos += end + 2
	return v, true
}

func (h *hiccup) symbol() string {
	start := h.pos
	for h.pos < len(h.s) && !strings.ContainsRune(" \t,[]{}\"", rune(h.s[h.pos])) {
		h.pos++
	}
	return h.s[start:h.pos]
}

func (h *hiccup) skipSpace() {
	for h.pos < len(h.s) && (h.s[h.pos] == ' ' || h.s[h.pos] == '\t' || h.s[h.pos] == ',') {
		h.pos++
	}
}

// splitTag splits "div.note#top" into the tag name and attribute text.
func splitTag(tag string) (string, string) {
	name := tag
	var classes []string
	id := ""
	if i := strings.IndexAny(tag, ".#"); i >= 0 {
		name = tag[:i]
		rest := tag[i:]
		for rest != "" {
			sep := rest[0]
			rest = rest[1:]
			j := strings.IndexAny(rest, ".#")
			if j < 0 {
				j = len(rest)
			}
			part := rest[:j]
			rest = rest[j:]
			if sep == '.' {
				classes = append(classes, part)
			} else {
				id = part
			}
		}
	}
	if name == "" {
		name = "div"
	}
	var attrs string
	if id != "" {
		attrs += ` id="` + html.EscapeString(id) + `"`
	}
	if len(classes) > 0 {
		attrs += ` class="` + html.EscapeString(strings.Join(classes, " ")) + `"`
	}
	return name, attrs
}
