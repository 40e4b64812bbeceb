// Package query implements the boolean page query language embedded in
// {{query ...}} macros: parsing, evaluation against the page graph, and
// rendering of results as a list or table.
package query

import "github.com/starford/logpress/internal/models"

// Expr is a node of a parsed query.
type Expr interface {
	exprNode()
}

// And matches when every operand matches.
type And struct{ Exprs []Expr }

// Or matches when any operand matches.
type Or struct{ Exprs []Expr }

// Not negates its operand.
type Not struct{ Expr Expr }

// PageTags matches pages tagged with any of Tags.
type PageTags struct{ Tags []string }

// Property matches pages carrying Key, optionally with Value.
type Property struct {
	Key      string
	Value    string
	HasValue bool
}

// Task matches pages with a block carrying one of Markers.
type Task struct{ Markers []models.TaskMarker }

// Priority matches pages with a block carrying one of Levels.
type Priority struct{ Levels []models.Priority }

// Between matches pages dated within [From, To], inclusive.
type Between struct{ From, To string }

// PageRef matches the page the reference resolves to.
type PageRef struct{ Name string }

// TextSearch matches pages whose text contains Text, ignoring case.
type TextSearch struct{ Text string }

// Namespace matches pages directly inside namespace Name.
type Namespace struct{ Name string }

// Reference matches a page and every page referencing it.
type Reference struct{ Name string }

func (And) exprNode()        {}
func (Or) exprNode()         {}
func (Not) exprNode()        {}
func (PageTags) exprNode()   {}
func (Property) exprNode()   {}
func (Task) exprNode()       {}
func (Priority) exprNode()   {}
func (Between) exprNode()    {}
func (PageRef) exprNode()    {}
func (TextSearch) exprNode() {}
func (Namespace) exprNode()  {}
func (Reference) exprNode()  {}
