package transform

import (
	"regexp"
)

var pageEmbedRe = regexp.MustCompile("\\{\\{embed\\s+(\x1aL\\d+\x1a)\\s*\\}\\}")

// rewriteEmbeds turns {{embed [[page]]}} into a transclusion of the
// resolved page.
func rewriteEmbeds(c *Context, text string) string {
	return pageEmbedRe.ReplaceAllStringFunc(text, func(s string) string {
		m := pageEmbedRe.FindStringSubmatch(s)
		sp, ok := c.spanAt(m[1])
		if !ok || sp.outcome == nil {
			return s
		}
		return c.protect(spanEmbed, renderLink(*sp.outcome, sp.outcome.Page.Target(), "", true, false))
	})
}
