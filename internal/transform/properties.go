package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/logpress/internal/parser"
	"github.com/starford/logpress/internal/query"
)

// systemKeys are bookkeeping properties with no meaning for readers.
var systemKeys = map[string]bool{
	"collapsed":        true,
	"id":               true,
	"heading":          true,
	"background-color": true,
}

// rewriteProperties drops logbook drawers, system properties and empty
// bullets, and renders user properties as bold-key list items.
func rewriteProperties(c *Context, text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	inLogbook := false
	for _, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case t == ":LOGBOOK:":
			inLogbook = true
			continue
		case inLogbook:
			if t == ":END:" {
				inLogbook = false
			}
			continue
		case t == "-":
			continue
		}

		body := t
		bullet := strings.HasPrefix(body, "- ")
		if bullet {
			body = strings.TrimSpace(body[2:])
		}
		key, value, ok := parser.PropertyLine(body)
		if !ok {
			out = append(out, line)
			continue
		}
		if systemKeys[key] || query.IsOption(key) || strings.HasPrefix(key, "logseq.") || value == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		out = append(out, indent+"- **"+displayKey(key)+":** "+value)
	}
	return strings.Join(out, "\n")
}

// displayKey turns "due-date" into "Due date".
func displayKey(key string) string {
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	r, size := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return key
	}
	return string(unicode.ToUpper(r)) + key[size:]
}
