package transform

import (
	"html"
	"net/url"
	"strings"

	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/resolver"
)

// rewriteLinks resolves every protected link span and stores its rendered
// form; the tokens stay in place until the final restore.
func rewriteLinks(c *Context, text string) string {
	if c.Env == nil || c.Env.Resolver == nil {
		return text
	}
	for i := range c.spans {
		sp := &c.spans[i]
		if sp.kind != spanLink || sp.outcome != nil {
			continue
		}
		o := c.Env.Resolver.Resolve(sp.ref, c.Page.Name)
		sp.outcome = &o
		sp.text = renderLink(o, sp.ref, sp.label, sp.embed, sp.inTable)
		c.Links = append(c.Links, Link{Target: o.Page.Target(), Kind: o.Kind})
	}
	return text
}

// renderLink renders a resolved reference as a wikilink, or as an HTML
// anchor when the target or label holds a "$" the site renderer would read
// as math.
func renderLink(o resolver.Outcome, ref, label string, embed, inTable bool) string {
	target, display := o.Link(ref, label)
	if strings.Contains(target, "$") || strings.Contains(display, "$") {
		if display == "" {
			display = target
		}
		return `<a href="` + Href(target) + `" class="internal">` + html.EscapeString(display) + `</a>`
	}
	var b strings.Builder
	if embed {
		b.WriteByte('!')
	}
	b.WriteString("[[")
	b.WriteString(target)
	if display != "" {
		if inTable {
			b.WriteString(`\|`)
		} else {
			b.WriteByte('|')
		}
		b.WriteString(display)
	}
	b.WriteString("]]")
	return b.String()
}

// PageLink renders a link to p labelled with its title when that differs
// from the link target.
func PageLink(p *models.Page, inTable bool) string {
	label := p.Title()
	if label == p.Target() {
		label = ""
	}
	return renderLink(resolver.Outcome{Kind: resolver.KindExact, Page: p}, p.Target(), label, false, inTable)
}

// Href is the site URL path of a link target: one path segment per
// namespace component, spaces as hyphens.
func Href(target string) string {
	parts := strings.Split(target, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(strings.ReplaceAll(strings.TrimSpace(part), " ", "-"))
	}
	return "/" + strings.Join(parts, "/")
}
