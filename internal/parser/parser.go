// Package parser turns outline page files into models.Page values: page
// properties, the block tree, tasks, priorities, dates and references.
package parser

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/starford/logpress/internal/dates"
	"github.com/starford/logpress/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\[\]]+?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([^\s#\[\],.;:!?()]+)`)
	propertyRe = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_.\-]*)::(?:\s+(.*))?$`)
)

// ParsePage parses the raw file at path. Journal files are named by their
// date; other files by their stem with namespace separators decoded.
// Parsing never fails: unrecognised syntax stays in the page body.
func ParsePage(filePath string, data []byte, journal bool) *models.Page {
	name, date := PageName(filePath, journal)
	page := &models.Page{
		Name:    name,
		Path:    filePath,
		Journal: date != nil,
		Date:    date,
	}
	if date != nil {
		page.Aliases = append(page.Aliases, dates.JournalTitle(*date))
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	props, body := splitPageProperties(content)
	page.Properties = props
	page.Body = body

	if v, ok := props.Get("tags"); ok {
		page.Tags = v.Strings()
	}
	for _, key := range []string{"alias", "aliases"} {
		if v, ok := props.Get(key); ok {
			page.Aliases = append(page.Aliases, v.Strings()...)
		}
	}
	if page.Date == nil {
		if v, ok := props.Get("date"); ok && v.Kind == models.PropertyDate {
			d := v.Date
			page.Date = &d
		}
	}

	page.Blocks = parseOutline(body)
	page.Refs = extractRefs(body)
	page.Text = PlainText([]byte(body))
	return page
}

// PageName derives the canonical page name from a file path.
func PageName(filePath string, journal bool) (string, *time.Time) {
	stem := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	if journal {
		if d, err := dates.Parse(stem); err == nil {
			return d.Format("2006-01-02"), &d
		}
	}
	if unescaped, err := url.PathUnescape(stem); err == nil {
		stem = unescaped
	}
	return strings.ReplaceAll(stem, "___", "/"), nil
}

// splitPageProperties separates the leading property block from the body.
// The block may be bare "key:: value" lines or a first bullet holding only
// properties.
func splitPageProperties(content string) (models.Properties, string) {
	lines := strings.Split(content, "\n")
	var props models.Properties
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	start := i
	for ; i < len(lines); i++ {
		t := strings.TrimSpace(lines[i])
		if t == "" {
			if len(props) > 0 {
				i++
			}
			break
		}
		if i == start {
			t = strings.TrimSpace(strings.TrimPrefix(t, "- "))
		} else if strings.HasPrefix(t, "-") {
			break
		}
		m := propertyRe.FindStringSubmatch(t)
		if m == nil {
			break
		}
		props.Set(m[1], ParseValue(m[1], m[2]))
	}
	if len(props) == 0 {
		return nil, content
	}
	return props, strings.Join(lines[i:], "\n")
}

// extractRefs returns deduplicated reference targets, wikilinks first, then
// inline tags.
func extractRefs(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		// [[Target|Label]] → Target.
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		add(target)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}
