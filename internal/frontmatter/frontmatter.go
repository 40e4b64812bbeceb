// Package frontmatter renders the YAML header of converted pages.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/logpress/internal/models"
)

// Field is one front matter entry. Value is a string, bool or []string.
type Field struct {
	Key   string
	Value any
}

// reserved keys are rendered explicitly or never rendered.
var reserved = map[string]bool{
	"title": true, "icon": true, "alias": true, "aliases": true, "tags": true,
	"date": true, "description": true, "created": true, "modified": true,
	"stub": true, "collapsed": true, "id": true, "heading": true,
	"background-color": true, "public": true, "filters": true,
}

// Fields returns the front matter of p in output order.
func Fields(p *models.Page) []Field {
	title := p.Title()
	icon := raw(p, "icon")
	if icon != "" {
		title = icon + " " + title
	}
	fields := []Field{{Key: "title", Value: title}}
	if icon != "" {
		fields = append(fields, Field{Key: "icon", Value: icon})
	}
	var aliases []string
	for _, a := range p.Aliases {
		if !strings.EqualFold(a, p.Title()) {
			aliases = append(aliases, a)
		}
	}
	if len(aliases) > 0 {
		fields = append(fields, Field{Key: "aliases", Value: aliases})
	}
	if len(p.Tags) > 0 {
		fields = append(fields, Field{Key: "tags", Value: p.Tags})
	}
	if p.Journal && p.Date != nil {
		fields = append(fields, Field{Key: "date", Value: p.Date.Format("2006-01-02")})
	}
	if d := raw(p, "description"); d != "" {
		fields = append(fields, Field{Key: "description", Value: d})
	}
	if p.Created != "" {
		fields = append(fields, Field{Key: "created", Value: p.Created})
	}
	if p.Modified != "" {
		fields = append(fields, Field{Key: "modified", Value: p.Modified})
	}
	if p.Stub {
		fields = append(fields, Field{Key: "stub", Value: true})
	}
	for _, prop := range p.Properties {
		key := prop.Key
		if reserved[key] || strings.HasPrefix(key, "query-") || strings.HasPrefix(key, "logseq.") {
			continue
		}
		switch prop.Value.Kind {
		case models.PropertyList:
			fields = append(fields, Field{Key: key, Value: prop.Value.List})
		case models.PropertyDate:
			fields = append(fields, Field{Key: key, Value: prop.Value.Date.Format("2006-01-02")})
		default:
			fields = append(fields, Field{Key: key, Value: prop.Value.Raw})
		}
	}
	return fields
}

func raw(p *models.Page, key string) string {
	v, ok := p.Properties.Get(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.Raw)
}

// Render serializes fields as a "---" delimited YAML document.
func Render(fields []Field) ([]byte, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		n.Content = append(n.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			valueNode(f.Value),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(fields) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(n); err != nil {
			_ = enc.Close()
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

func valueNode(v any) *yaml.Node {
	switch vv := v.(type) {
	case bool:
		if vv {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "true"}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: "false"}
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range vv {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: item})
		}
		return seq
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: vv}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// Document renders the front matter of p followed by body.
func Document(p *models.Page, body string) ([]byte, error) {
	head, err := Render(Fields(p))
	if err != nil {
		return nil, err
	}
	if body != "" {
		head = append(head, '\n')
	}
	return append(head, body...), nil
}
