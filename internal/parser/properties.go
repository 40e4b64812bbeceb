package parser

import (
	"strings"

	"github.com/starford/logpress/internal/dates"
	"github.com/starford/logpress/internal/models"
)

// listKeys always hold comma separated lists.
var listKeys = map[string]bool{
	"tags":    true,
	"alias":   true,
	"aliases": true,
}

// ParseValue interprets the raw text of a "key:: value" property.
func ParseValue(key, raw string) models.PropertyValue {
	raw = strings.TrimSpace(raw)
	v := models.PropertyValue{Kind: models.PropertyString, Raw: raw}
	if raw == "" {
		return v
	}
	if listKeys[strings.ToLower(key)] || allRefs(raw) {
		v.Kind = models.PropertyList
		v.List = SplitList(raw)
		return v
	}
	if d, err := dates.Parse(raw); err == nil {
		v.Kind = models.PropertyDate
		v.Date = d
	}
	return v
}

// SplitList splits a comma separated value, dropping [[ ]] brackets and
// leading # from each item.
func SplitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = Unwrap(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Unwrap trims s and strips one level of [[ ]] and a leading #.
func Unwrap(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	if strings.HasPrefix(s, "[[") && strings.HasSuffix(s, "]]") {
		s = s[2 : len(s)-2]
	}
	return strings.TrimSpace(s)
}

// allRefs reports whether raw is two or more comma separated references.
func allRefs(raw string) bool {
	items := strings.Split(raw, ",")
	if len(items) < 2 {
		return false
	}
	for _, item := range items {
		item = strings.TrimSpace(item)
		if !(strings.HasPrefix(item, "[[") && strings.HasSuffix(item, "]]")) && !strings.HasPrefix(item, "#") {
			return false
		}
	}
	return true
}

// PropertyLine splits a trimmed "key:: value" line.
func PropertyLine(s string) (key, value string, ok bool) {
	m := propertyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), strings.TrimSpace(m[2]), true
}
