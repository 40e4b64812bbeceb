package query

import (
	"strings"
)

// Option keys read from the block holding a query.
const (
	OptProperties = "query-properties"
	OptTable      = "query-table"
	OptSortBy     = "query-sort-by"
	OptSortDesc   = "query-sort-desc"
)

// Options controls how results are sorted and rendered.
type Options struct {
	Properties []string
	Table      bool
	SortBy     string
	SortDesc   bool
}

// IsOption reports whether key is a query option key.
func IsOption(key string) bool {
	return strings.HasPrefix(strings.ToLower(key), "query-")
}

// ParseOptions reads options from raw key/value pairs. Table mode defaults
// to true.
func ParseOptions(kv map[string]string) Options {
	opts := Options{Table: true}
	for key, raw := range kv {
		raw = strings.TrimSpace(raw)
		switch strings.ToLower(key) {
		case OptProperties:
			opts.Properties = splitColumns(raw)
		case OptTable:
			opts.Table = !strings.EqualFold(raw, "false")
		case OptSortBy:
			opts.SortBy = strings.ToLower(strings.TrimPrefix(raw, ":"))
		case OptSortDesc:
			opts.SortDesc = strings.EqualFold(raw, "true")
		}
	}
	return opts
}

// splitColumns parses "[:page :status]" or "page, status".
func splitColumns(raw string) []string {
	raw = strings.Trim(raw, "[]")
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var cols []string
	for _, f := range fields {
		f = strings.ToLower(strings.TrimPrefix(f, ":"))
		if f != "" {
			cols = append(cols, f)
		}
	}
	return cols
}
