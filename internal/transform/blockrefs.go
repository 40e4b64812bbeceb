package transform

import (
	"regexp"
	"strings"
)

// blockRefRe matches ((id)) optionally wrapped in {{embed ...}}.
var blockRefRe = regexp.MustCompile(`(\{\{embed\s+)?\(\(([A-Za-z0-9_-]+)\)\)(\s*\}\})?`)

// expandBlockRefs inlines referenced block text in a single pass; inserted
// text is not scanned again, so reference cycles cannot recurse.
func expandBlockRefs(c *Context, text string) string {
	if c.Env == nil || c.Env.Graph == nil || !strings.Contains(text, "((") {
		return text
	}
	return replaceOutside(text, blockRefRe, func(m []string) string {
		ref, ok := c.Env.Graph.Block(m[2])
		if !ok {
			return m[0]
		}
		if m[1] != "" && m[3] != "" {
			return "> " + firstLine(ref.Block.Content) + " [[" + ref.Page.Name + "]]"
		}
		return m[1] + firstLine(ref.Block.Content) + " [[" + ref.Page.Name + "|↗]]" + m[3]
	})
}

// replaceOutside applies fn to matches of re that lie outside inline code
// and fenced code blocks.
func replaceOutside(text string, re *regexp.Regexp, fn func(m []string) string) string {
	lines := strings.Split(text, "\n")
	inFence := false
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(strings.TrimSpace(line), "- "), "```") {
			inFence = !inFence
			continue
		}
		if inFence || !re.MatchString(line) {
			continue
		}
		parts := strings.Split(line, "`")
		for j := 0; j < len(parts); j += 2 {
			parts[j] = re.ReplaceAllStringFunc(parts[j], func(s string) string {
				return fn(re.FindStringSubmatch(s))
			})
		}
		lines[i] = strings.Join(parts, "`")
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
