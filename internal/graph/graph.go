// Package graph holds the page graph: every page of a build keyed by
// normalized name and alias. The graph is assembled once and then only read;
// the stub registry is the single part that may grow afterwards.
package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/starford/logpress/internal/models"
)

// BlockRef locates a block carrying an id.
type BlockRef struct {
	Page  *models.Page
	Block *models.Block
}

// Conflict records a name or alias claimed by more than one page. The later
// page wins.
type Conflict struct {
	Key     string
	Alias   bool
	Kept    string
	Dropped string
}

// StubInfo is a registered stub page and the pages that referenced it.
type StubInfo struct {
	Page      *models.Page
	Referrers []string
}

type stubEntry struct {
	page      *models.Page
	referrers map[string]struct{}
}

// Graph is the page graph of one build.
type Graph struct {
	pages     []*models.Page
	names     map[string]*models.Page
	aliases   map[string]string
	keys      []string
	blocks    map[string]BlockRef
	conflicts []Conflict
	private   []string

	mu    sync.Mutex
	stubs map[string]*stubEntry
}

// FromPages builds a graph from pages in order. A page whose normalized name
// is already present replaces the earlier page in place.
func FromPages(pages ...*models.Page) *Graph {
	g := &Graph{
		names:   make(map[string]*models.Page, len(pages)),
		aliases: make(map[string]string),
		blocks:  make(map[string]BlockRef),
		stubs:   make(map[string]*stubEntry),
	}
	pos := make(map[string]int, len(pages))
	for _, p := range pages {
		key := NormalizeName(p.Name)
		if prev, ok := g.names[key]; ok {
			g.conflicts = append(g.conflicts, Conflict{Key: key, Kept: p.Path, Dropped: prev.Path})
			g.pages[pos[key]] = p
		} else {
			pos[key] = len(g.pages)
			g.pages = append(g.pages, p)
			g.keys = append(g.keys, key)
		}
		g.names[key] = p
	}
	sort.Strings(g.keys)

	for _, p := range g.pages {
		own := NormalizeName(p.Name)
		for _, alias := range p.Aliases {
			key := NormalizeName(alias)
			// A page aliasing itself adds nothing.
			if key == "" || key == own {
				continue
			}
			if prev, ok := g.aliases[key]; ok && prev != p.Name {
				g.conflicts = append(g.conflicts, Conflict{Key: key, Alias: true, Kept: p.Path, Dropped: g.names[NormalizeName(prev)].Path})
			}
			g.aliases[key] = p.Name
		}
		p.Walk(func(b *models.Block) {
			if b.ID != "" {
				g.blocks[b.ID] = BlockRef{Page: p, Block: b}
			}
		})
	}
	return g
}

// Pages returns pages in insertion order. Callers must not modify the slice.
func (g *Graph) Pages() []*models.Page { return g.pages }

// Len returns the number of pages.
func (g *Graph) Len() int { return len(g.pages) }

// Page looks up a page by name, normalizing it first.
func (g *Graph) Page(name string) (*models.Page, bool) {
	p, ok := g.names[NormalizeName(name)]
	return p, ok
}

// AliasTarget returns the canonical name an alias points to.
func (g *Graph) AliasTarget(alias string) (string, bool) {
	name, ok := g.aliases[NormalizeName(alias)]
	return name, ok
}

// KeysWithPrefix returns the normalized name keys starting with prefix, in
// lexical order.
func (g *Graph) KeysWithPrefix(prefix string) []string {
	i := sort.SearchStrings(g.keys, prefix)
	var out []string
	for ; i < len(g.keys) && strings.HasPrefix(g.keys[i], prefix); i++ {
		out = append(out, g.keys[i])
	}
	return out
}

// Block returns the block carrying id.
func (g *Graph) Block(id string) (BlockRef, bool) {
	ref, ok := g.blocks[id]
	return ref, ok
}

// Conflicts returns the duplicate names and aliases found while building.
func (g *Graph) Conflicts() []Conflict { return g.conflicts }

// Private returns the paths of pages excluded as private.
func (g *Graph) Private() []string { return g.private }

// StubFor returns the stub registered under key, creating it with create on
// first use. referrer, when non-empty, is recorded as a referring page.
// Safe for concurrent use.
func (g *Graph) StubFor(key string, referrer string, create func() *models.Page) *models.Page {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.stubs[key]
	if !ok {
		e = &stubEntry{page: create(), referrers: make(map[string]struct{})}
		g.stubs[key] = e
	}
	if referrer != "" {
		e.referrers[referrer] = struct{}{}
	}
	return e.page
}

// Stubs returns every registered stub sorted by key.
func (g *Graph) Stubs() []StubInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	keys := make([]string, 0, len(g.stubs))
	for k := range g.stubs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]StubInfo, 0, len(keys))
	for _, k := range keys {
		e := g.stubs[k]
		refs := make([]string, 0, len(e.referrers))
		for r := range e.referrers {
			refs = append(refs, r)
		}
		sort.Strings(refs)
		out = append(out, StubInfo{Page: e.page, Referrers: refs})
	}
	return out
}
