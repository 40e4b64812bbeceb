package transform

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/parser"
	"github.com/starford/logpress/internal/query"
)

var (
	queryRe      = regexp.MustCompile(`\{\{query\s+([^\n]*?)\}\}`)
	queryTokenRe = regexp.MustCompile("\x1aQ\\d+\x1a")
)

// expandQueries replaces each {{query ...}} macro with its rendered result.
// Option lines of the same block are consumed. A query that fails to parse
// is kept verbatim inside a fenced code block.
func expandQueries(c *Context, text string) string {
	if !strings.Contains(text, tokenMark+"Q") {
		return text
	}
	lines := strings.Split(text, "\n")
	drop := make(map[int]bool)
	var out []string
	for i, line := range lines {
		loc := queryTokenRe.FindStringIndex(line)
		if loc == nil {
			continue
		}
		sp, ok := c.spanAt(line[loc[0]:loc[1]])
		if !ok {
			continue
		}
		opts := make(map[string]string)
		for _, j := range optionLines(lines, i) {
			key, value, _ := parser.PropertyLine(lines[j])
			opts[key] = value
			drop[j] = true
		}
		raw := strings.TrimSpace(queryRe.FindStringSubmatch(sp.src)[1])
		indent := continuationIndent(line)
		rendered := c.renderQuery(raw, query.ParseOptions(opts), indent)
		lines[i] = strings.TrimRight(line[:loc[0]]+line[loc[1]:], " \t")
		if strings.TrimSpace(lines[i]) == "-" {
			if strings.HasPrefix(rendered[0], "- ") {
				// List items take over the bullet and continue as siblings.
				indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
				lines[i] = indent + rendered[0]
			} else {
				lines[i] += " " + rendered[0]
			}
			rendered = rendered[1:]
		}
		for k := range rendered {
			rendered[k] = indent + rendered[k]
		}
		lines[i] = strings.Join(append([]string{lines[i]}, rendered...), "\n")
	}
	for i, line := range lines {
		if !drop[i] {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func (c *Context) renderQuery(raw string, opts query.Options, indent string) []string {
	expr, err := query.Parse(raw)
	if err != nil {
		c.logger().Warn("malformed query",
			slog.String("page", c.Page.Name),
			slog.String("query", raw),
			slog.String("error", err.Error()),
		)
		block := strings.Join([]string{"```", "{{query " + raw + "}}", "```"}, "\n"+indent)
		return []string{c.protect(spanRaw, block)}
	}
	if c.Env == nil || c.Env.Graph == nil {
		return query.EmptyResult()
	}
	var lookup query.Lookuper
	if c.Env.Resolver != nil {
		lookup = c.Env.Resolver
	}
	pages := query.Evaluate(expr, c.Env.Graph, query.Env{Resolver: lookup, Now: c.Env.Now})
	query.Sort(pages, opts)
	return query.Render(pages, opts, func(p *models.Page, inTable bool) string {
		return c.protect(spanLink, PageLink(p, inTable))
	})
}

// optionLines returns indexes of query-* property lines belonging to the
// same block as line i: continuation lines directly after it, and the ones
// directly before it up to the bullet.
func optionLines(lines []string, i int) []int {
	var idx []int
	for j := i - 1; j >= 0 && !isBullet(lines[i]); j-- {
		key, _, ok := parser.PropertyLine(lines[j])
		if !ok || isBullet(lines[j]) || !query.IsOption(key) {
			break
		}
		idx = append(idx, j)
	}
	for j := i + 1; j < len(lines); j++ {
		key, _, ok := parser.PropertyLine(lines[j])
		if !ok || isBullet(lines[j]) || !query.IsOption(key) {
			break
		}
		idx = append(idx, j)
	}
	return idx
}

func isBullet(line string) bool {
	t := strings.TrimLeft(line, " \t")
	return t == "-" || strings.HasPrefix(t, "- ")
}

// continuationIndent is the indentation of text continuing the block that
// line belongs to.
func continuationIndent(line string) string {
	ws := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	if isBullet(line) {
		return ws + "  "
	}
	return ws
}
