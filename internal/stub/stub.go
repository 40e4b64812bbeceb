// Package stub synthesizes placeholder pages for references that match no
// page in the graph.
package stub

import (
	"strings"

	goslug "github.com/gosimple/slug"

	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
)

// Synthesizer registers stub pages in a graph.
type Synthesizer struct {
	g *graph.Graph
}

// New returns a Synthesizer backed by g's stub registry.
func New(g *graph.Graph) *Synthesizer {
	return &Synthesizer{g: g}
}

// For returns the stub page for name, registering it on first use.
// referrer is the name of the page holding the reference and may be empty.
func (s *Synthesizer) For(name, referrer string) *models.Page {
	safe := SafeName(name)
	return s.g.StubFor(safe, referrer, func() *models.Page {
		return &models.Page{
			Name: safe,
			Path: safe + ".md",
			Stub: true,
			Properties: models.Properties{
				{Key: "title", Value: models.PropertyValue{Raw: graph.NormalizeName(name)}},
			},
		}
	})
}

// SafeName derives a deterministic filesystem-safe name from the normalized
// reference. Namespace components are slugged separately and a leading "$"
// is kept.
func SafeName(name string) string {
	norm := graph.NormalizeName(name)
	prefix := ""
	if strings.HasPrefix(norm, "$") {
		prefix = "$"
		norm = strings.TrimLeft(norm, "$")
	}
	parts := strings.Split(norm, "/")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, componentSlug(part))
	}
	if len(out) == 0 {
		return prefix + "untitled"
	}
	return prefix + strings.Join(out, "/")
}

func componentSlug(s string) string {
	if slug := goslug.Make(s); slug != "" {
		return slug
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', '.', ' ':
			return '_'
		}
		return r
	}, s)
	if strings.Trim(safe, "_") == "" {
		return "untitled"
	}
	return safe
}
