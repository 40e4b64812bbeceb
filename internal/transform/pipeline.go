// Package transform rewrites outline page bodies into flat markdown through
// an ordered list of named stages sharing a per-page Context.
package transform

import (
	"strings"

	"github.com/starford/logpress/internal/models"
)

// Stage is one named rewrite step.
type Stage struct {
	Name  string
	Apply func(c *Context, text string) string
}

// Stages returns the pipeline in execution order.
//
//	blockrefs   inline ((id)) and {{embed ((id))}} from the block index
//	protect     swap code, wikilinks and math for placeholder tokens
//	links       resolve wikilink spans and render them
//	embeds      {{embed [[x]]}} to transclusions
//	queries     evaluate {{query ...}} against the complete graph
//	properties  drop system properties and logbooks, render user properties
//	tasks       task markers, priorities, SCHEDULED/DEADLINE
//	structural  hiccup, cloze, media embeds, renderer macros
//	tables      repair separator rows
//	escape      escape stray dollars, then restore tokens
func Stages() []Stage {
	return []Stage{
		{Name: "blockrefs", Apply: expandBlockRefs},
		{Name: "protect", Apply: protectSpans},
		{Name: "links", Apply: rewriteLinks},
		{Name: "embeds", Apply: rewriteEmbeds},
		{Name: "queries", Apply: expandQueries},
		{Name: "properties", Apply: rewriteProperties},
		{Name: "tasks", Apply: rewriteTasks},
		{Name: "structural", Apply: rewriteStructural},
		{Name: "tables", Apply: repairTables},
		{Name: "escape", Apply: escapeAndRestore},
	}
}

// Pipeline runs the stages over pages of one build. It is safe for
// concurrent use once the graph is complete.
type Pipeline struct {
	env    *Env
	stages []Stage
}

// New creates a Pipeline over env.
func New(env *Env) *Pipeline {
	return &Pipeline{env: env, stages: Stages()}
}

// Output is the transformed body of one page.
type Output struct {
	Markdown string
	Links    []Link
}

// Transform rewrites the page body. It never fails: constructs it cannot
// interpret are passed through as text.
func (p *Pipeline) Transform(page *models.Page) Output {
	c := &Context{Page: page, Env: p.env}
	return Output{Markdown: p.Apply(c, page.Body), Links: c.Links}
}

// Apply runs every stage over text using c.
func (p *Pipeline) Apply(c *Context, text string) string {
	text = strings.ReplaceAll(text, tokenMark, "")
	for _, st := range p.stages {
		text = st.Apply(c, text)
	}
	return strings.TrimRight(text, "\n") + "\n"
}
