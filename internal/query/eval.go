package query

import (
	"strings"
	"time"

	"github.com/starford/logpress/internal/dates"
	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/parser"
	"github.com/starford/logpress/internal/resolver"
)

// Lookuper resolves references without creating stubs.
type Lookuper interface {
	Lookup(ref string) (resolver.Outcome, bool)
}

// Env carries what evaluation needs beyond the page itself.
type Env struct {
	Resolver Lookuper
	Now      time.Time
}

// Evaluate returns the pages of g matching e, in graph insertion order.
func Evaluate(e Expr, g *graph.Graph, env Env) []*models.Page {
	if env.Now.IsZero() {
		env.Now = time.Now()
	}
	var out []*models.Page
	for _, p := range g.Pages() {
		if Match(e, p, env) {
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether page p satisfies e.
func Match(e Expr, p *models.Page, env Env) bool {
	switch e := e.(type) {
	case And:
		for _, sub := range e.Exprs {
			if !Match(sub, p, env) {
				return false
			}
		}
		return true
	case Or:
		for _, sub := range e.Exprs {
			if Match(sub, p, env) {
				return true
			}
		}
		return false
	case Not:
		return !Match(e.Expr, p, env)
	case PageTags:
		return matchTags(e, p)
	case Property:
		return matchProperty(e, p)
	case Task:
		return anyBlock(p, func(b *models.Block) bool {
			for _, m := range e.Markers {
				if b.Task == m {
					return true
				}
			}
			return false
		})
	case Priority:
		return anyBlock(p, func(b *models.Block) bool {
			for _, lvl := range e.Levels {
				if b.Priority == lvl {
					return true
				}
			}
			return false
		})
	case Between:
		return matchBetween(e, p, env.Now)
	case PageRef:
		target := lookup(env, e.Name)
		return target != nil && target == p
	case TextSearch:
		return strings.Contains(strings.ToLower(p.Text), strings.ToLower(e.Text))
	case Namespace:
		ns := e.Name
		if target := lookup(env, e.Name); target != nil {
			ns = target.Name
		}
		return p.Namespace() != "" && graph.NormalizeName(p.Namespace()) == graph.NormalizeName(ns)
	case Reference:
		return matchReference(e, p, env)
	}
	return false
}

func lookup(env Env, ref string) *models.Page {
	if env.Resolver == nil {
		return nil
	}
	o, ok := env.Resolver.Lookup(ref)
	if !ok {
		return nil
	}
	return o.Page
}

func matchTags(e PageTags, p *models.Page) bool {
	for _, want := range e.Tags {
		want = graph.NormalizeName(parser.Unwrap(want))
		for _, tag := range p.Tags {
			if graph.NormalizeName(tag) == want {
				return true
			}
		}
	}
	return false
}

func matchProperty(e Property, p *models.Page) bool {
	v, ok := p.Properties.Get(e.Key)
	if !ok {
		return false
	}
	if !e.HasValue {
		return true
	}
	want := graph.NormalizeName(parser.Unwrap(e.Value))
	if graph.NormalizeName(parser.Unwrap(v.Raw)) == want {
		return true
	}
	for _, item := range v.Strings() {
		if graph.NormalizeName(parser.Unwrap(item)) == want {
			return true
		}
	}
	return false
}

func matchBetween(e Between, p *models.Page, now time.Time) bool {
	d, ok := PageDate(p)
	if !ok {
		return false
	}
	from, err := dates.ParseRelative(e.From, now)
	if err != nil {
		return false
	}
	to, err := dates.ParseRelative(e.To, now)
	if err != nil {
		return false
	}
	if to.Before(from) {
		from, to = to, from
	}
	return !d.Before(from) && !d.After(to)
}

// PageDate returns the page's date: the journal date, a date-shaped name,
// or the first date-valued property.
func PageDate(p *models.Page) (time.Time, bool) {
	if p.Date != nil {
		return *p.Date, true
	}
	if d, err := dates.Parse(p.Name); err == nil {
		return d, true
	}
	for _, prop := range p.Properties {
		if prop.Value.Kind == models.PropertyDate {
			return prop.Value.Date, true
		}
	}
	return time.Time{}, false
}

func matchReference(e Reference, p *models.Page, env Env) bool {
	target := lookup(env, e.Name)
	if target != nil && target == p {
		return true
	}
	want := graph.NormalizeName(e.Name)
	refs := append(append([]string(nil), p.Refs...), p.Tags...)
	for _, ref := range refs {
		if target != nil {
			if got := lookup(env, ref); got == target {
				return true
			}
			continue
		}
		if graph.NormalizeName(ref) == want {
			return true
		}
	}
	return false
}

func anyBlock(p *models.Page, pred func(*models.Block) bool) bool {
	found := false
	p.Walk(func(b *models.Block) {
		if !found && pred(b) {
			found = true
		}
	})
	return found
}
