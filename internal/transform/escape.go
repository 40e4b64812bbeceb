package transform

import (
	"strings"
)

// escapeAndRestore escapes each "$" outside protected spans that precedes a
// digit or an upper-case/underscore name, so amounts and variables are not
// read as math, then restores every placeholder.
func escapeAndRestore(c *Context, text string) string {
	if strings.Contains(text, "$") {
		var b strings.Builder
		for i := 0; i < len(text); i++ {
			ch := text[i]
			if ch == '$' && (i == 0 || text[i-1] != '\\') && i+1 < len(text) && startsLiteral(text[i+1]) {
				b.WriteString(`\$`)
				continue
			}
			b.WriteByte(ch)
		}
		text = b.String()
	}
	return c.restore(text)
}

func startsLiteral(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'Z') || b == '_'
}
