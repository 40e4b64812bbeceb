package query

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/logpress/internal/models"
)

// LinkFunc renders a link to p. inTable requests a form safe inside a
// table cell.
type LinkFunc func(p *models.Page, inTable bool) string

// hidden property keys never become automatic columns.
var hidden = map[string]bool{
	"title": true, "tags": true, "alias": true, "aliases": true,
	"id": true, "collapsed": true, "private": true, "public": true,
	"filters": true, "icon": true,
}

// Sort orders pages by opts.SortBy, keeping the input order of equal keys.
// Without a sort key the order is unchanged.
func Sort(pages []*models.Page, opts Options) {
	if opts.SortBy == "" {
		return
	}
	slices.SortStableFunc(pages, func(a, b *models.Page) int {
		c := cmp.Compare(sortKey(a, opts.SortBy), sortKey(b, opts.SortBy))
		if opts.SortDesc {
			return -c
		}
		return c
	})
}

func sortKey(p *models.Page, col string) string {
	switch col {
	case "page", "name":
		return strings.ToLower(p.Name)
	case "tags":
		return strings.ToLower(strings.Join(p.Tags, ", "))
	case "created":
		return p.Created
	case "modified", "updated":
		return p.Modified
	case "namespace":
		return strings.ToLower(p.Namespace())
	}
	v, ok := p.Properties.Get(col)
	if !ok {
		return ""
	}
	if v.Kind == models.PropertyDate {
		return v.Date.Format("2006-01-02")
	}
	return strings.ToLower(v.Raw)
}

// Columns returns the table columns: the requested ones, or page, tags and
// every visible property key present on at least one result in first-seen
// order.
func Columns(pages []*models.Page, opts Options) []string {
	if len(opts.Properties) > 0 {
		return opts.Properties
	}
	cols := []string{"page", "tags"}
	seen := map[string]bool{"page": true, "tags": true}
	for _, p := range pages {
		for _, key := range p.Properties.Keys() {
			if seen[key] || hidden[key] || IsOption(key) || strings.HasPrefix(key, "logseq.") {
				continue
			}
			seen[key] = true
			cols = append(cols, key)
		}
	}
	return cols
}

// Render renders sorted results as markdown lines.
func Render(pages []*models.Page, opts Options, link LinkFunc) []string {
	if len(pages) == 0 {
		return EmptyResult()
	}
	if !opts.Table && len(opts.Properties) == 0 {
		lines := make([]string, 0, len(pages))
		for _, p := range pages {
			lines = append(lines, "- "+link(p, false))
		}
		return lines
	}

	cols := Columns(pages, opts)
	header := make([]string, len(cols))
	sep := make([]string, len(cols))
	for i, c := range cols {
		header[i] = columnTitle(c)
		sep[i] = "---"
	}
	lines := []string{row(header), row(sep)}
	for _, p := range pages {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cell(p, c, link)
		}
		lines = append(lines, row(cells))
	}
	return lines
}

// EmptyResult is rendered when a query matches nothing.
func EmptyResult() []string {
	return []string{
		"> [!info] Query Results",
		"> No pages match this query.",
	}
}

func cell(p *models.Page, col string, link LinkFunc) string {
	switch col {
	case "page", "name":
		return link(p, true)
	case "tags":
		return escapeCell(strings.Join(p.Tags, ", "))
	case "created":
		return p.Created
	case "modified", "updated":
		return p.Modified
	case "namespace":
		return escapeCell(p.Namespace())
	}
	v, ok := p.Properties.Get(col)
	if !ok {
		return ""
	}
	return escapeCell(v.Raw)
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

func columnTitle(col string) string {
	r, size := utf8.DecodeRuneInString(col)
	if r == utf8.RuneError {
		return col
	}
	return string(unicode.ToUpper(r)) + col[size:]
}
