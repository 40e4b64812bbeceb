package transform

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/resolver"
)

// tokenMark delimits placeholder tokens. It is stripped from input so a
// token can never occur in source text.
const tokenMark = "\x1a"

var tokenRe = regexp.MustCompile("\x1a[A-Z](\\d+)\x1a")

type spanKind byte

const (
	spanCode  spanKind = 'C'
	spanMath  spanKind = 'M'
	spanLink  spanKind = 'L'
	spanEmbed spanKind = 'E'
	spanRaw   spanKind = 'R'
	spanQuery spanKind = 'Q'
)

// span is a protected region. src is the original text, text what the
// token is restored to.
type span struct {
	kind    spanKind
	src     string
	text    string
	ref     string
	label   string
	embed   bool
	inTable bool
	outcome *resolver.Outcome
}

// Env is shared by every page of one build. The graph must be complete.
type Env struct {
	Graph    *graph.Graph
	Resolver *resolver.Resolver
	Now      time.Time
	Logger   *slog.Logger
}

// Link is one resolved outgoing reference.
type Link struct {
	Target string
	Kind   resolver.Kind
}

// Context carries per-page state between stages.
type Context struct {
	Page  *models.Page
	Env   *Env
	Links []Link
	spans []span
}

func (c *Context) protect(kind spanKind, text string) string {
	c.spans = append(c.spans, span{kind: kind, src: text, text: text})
	return c.token(len(c.spans) - 1)
}

func (c *Context) protectSpan(s span) string {
	c.spans = append(c.spans, s)
	return c.token(len(c.spans) - 1)
}

func (c *Context) token(i int) string {
	return tokenMark + string(rune(c.spans[i].kind)) + strconv.Itoa(i) + tokenMark
}

// spanAt returns the span a token refers to.
func (c *Context) spanAt(token string) (*span, bool) {
	m := tokenRe.FindStringSubmatch(token)
	if m == nil {
		return nil, false
	}
	i, err := strconv.Atoi(m[1])
	if err != nil || i >= len(c.spans) {
		return nil, false
	}
	return &c.spans[i], true
}

// restore replaces tokens with their final text, newest first, so a span
// whose text embeds older tokens is expanded before those tokens are.
func (c *Context) restore(s string) string {
	for i := len(c.spans) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, c.token(i), c.spans[i].text)
	}
	return strings.ReplaceAll(s, tokenMark, "")
}

func (c *Context) logger() *slog.Logger {
	if c.Env != nil && c.Env.Logger != nil {
		return c.Env.Logger
	}
	return slog.Default()
}
