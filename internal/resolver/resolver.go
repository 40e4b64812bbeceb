// Package resolver maps reference strings to canonical pages.
package resolver

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/stub"
)

// Kind is the rule that produced an Outcome.
type Kind int

const (
	KindExact Kind = iota
	KindAlias
	KindNamespace
	KindPrefix
	KindStub
)

var kindNames = [...]string{"exact", "alias", "namespace", "prefix", "stub"}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("resolver: unknown kind %q", b)
}

// Outcome is the result of resolving one reference.
type Outcome struct {
	Kind Kind
	Page *models.Page
}

// Resolver resolves references against a frozen graph.
type Resolver struct {
	g     *graph.Graph
	stubs *stub.Synthesizer
}

// New creates a Resolver. stubs may be nil, in which case misses still
// produce a KindStub outcome but nothing is registered.
func New(g *graph.Graph, stubs *stub.Synthesizer) *Resolver {
	return &Resolver{g: g, stubs: stubs}
}

// Resolve resolves ref, falling back to a stub page. referrer names the page
// holding the reference.
func (r *Resolver) Resolve(ref, referrer string) Outcome {
	if o, ok := r.Lookup(ref); ok {
		return o
	}
	if r.stubs != nil {
		return Outcome{Kind: KindStub, Page: r.stubs.For(ref, referrer)}
	}
	safe := stub.SafeName(ref)
	return Outcome{Kind: KindStub, Page: &models.Page{Name: safe, Path: safe + ".md", Stub: true}}
}

// Lookup tries every rule except stub synthesis and has no side effects.
// Precedence: exact name, alias, namespace expansion, prefix.
func (r *Resolver) Lookup(ref string) (Outcome, bool) {
	key := graph.NormalizeName(ref)
	if key == "" {
		return Outcome{}, false
	}
	if p, ok := r.direct(key); ok {
		return Outcome{Kind: KindExact, Page: p}, true
	}
	if p, ok := r.alias(key); ok {
		return Outcome{Kind: KindAlias, Page: p}, true
	}
	if p, ok := r.namespace(key); ok {
		return Outcome{Kind: KindNamespace, Page: p}, true
	}
	if p, ok := r.prefix(key); ok {
		return Outcome{Kind: KindPrefix, Page: p}, true
	}
	return Outcome{}, false
}

func (r *Resolver) direct(key string) (*models.Page, bool) {
	return r.g.Page(key)
}

// alias follows exactly one alias hop.
func (r *Resolver) alias(key string) (*models.Page, bool) {
	name, ok := r.g.AliasTarget(key)
	if !ok {
		return nil, false
	}
	return r.g.Page(name)
}

// namespace rewrites "ns/rest" to "N/rest" where ns names or aliases N.
// Split points are tried from the left.
func (r *Resolver) namespace(key string) (*models.Page, bool) {
	for i := 0; i < len(key); i++ {
		if key[i] != '/' {
			continue
		}
		ns, rest := key[:i], key[i+1:]
		if ns == "" || rest == "" {
			continue
		}
		target, ok := r.direct(ns)
		if !ok {
			target, ok = r.alias(ns)
		}
		if !ok {
			continue
		}
		if p, ok := r.direct(target.Name + "/" + rest); ok {
			return p, true
		}
	}
	return nil, false
}

// prefix finds names that extend key at a token boundary. The shortest wins;
// equal lengths fall back to lexical order.
func (r *Resolver) prefix(key string) (*models.Page, bool) {
	var best string
	for _, cand := range r.g.KeysWithPrefix(key) {
		if len(cand) == len(key) || !boundary(cand[len(key):]) {
			continue
		}
		if best == "" || len(cand) < len(best) {
			best = cand
		}
	}
	if best == "" {
		return nil, false
	}
	return r.g.Page(best)
}

func boundary(rest string) bool {
	next, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(next) && !unicode.IsDigit(next)
}

// Link is the text a reference should render as: the page's target, with a
// label when the reference text differs from it.
func (o Outcome) Link(ref, label string) (target, display string) {
	target = o.Page.Target()
	display = label
	if display == "" && strings.TrimSpace(ref) != target {
		display = strings.TrimSpace(ref)
	}
	return target, display
}
