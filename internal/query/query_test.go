package query

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/parser"
	"github.com/starford/logpress/internal/resolver"
)

func page(name, src string) *models.Page {
	return parser.ParsePage("pages/"+name+".md", []byte(src), false)
}

func env(g *graph.Graph) Env {
	return Env{Resolver: resolver.New(g, nil), Now: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)}
}

func names(pages []*models.Page) string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Name
	}
	return strings.Join(out, ",")
}

func run(t *testing.T, g *graph.Graph, q string) string {
	t.Helper()
	expr, err := Parse(q)
	if err != nil {
		t.Fatalf("Parse(%q): %v", q, err)
	}
	return names(Evaluate(expr, g, env(g)))
}

func TestParse_Forms(t *testing.T) {
	expr, err := Parse(`(and (page-tags [[project]]) (or (task TODO doing) (not (priority a))) "needle")`)
	if err != nil {
		t.Fatal(err)
	}
	and, ok := expr.(And)
	if !ok || len(and.Exprs) != 3 {
		t.Fatalf("expr = %#v", expr)
	}
	if tags, ok := and.Exprs[0].(PageTags); !ok || tags.Tags[0] != "project" {
		t.Errorf("first operand = %#v", and.Exprs[0])
	}
	or := and.Exprs[1].(Or)
	if task := or.Exprs[0].(Task); len(task.Markers) != 2 || task.Markers[1] != models.TaskDoing {
		t.Errorf("task = %#v", task)
	}
	if ts, ok := and.Exprs[2].(TextSearch); !ok || ts.Text != "needle" {
		t.Errorf("text = %#v", and.Exprs[2])
	}

	expr, err = Parse("(page-tags архив Åland)")
	if err != nil {
		t.Fatal(err)
	}
	if tags := expr.(PageTags); len(tags.Tags) != 2 || tags.Tags[0] != "архив" || tags.Tags[1] != "Åland" {
		t.Errorf("non-ASCII tags = %#v", tags)
	}
	expr, err = Parse("(property статус à)")
	if err != nil {
		t.Fatal(err)
	}
	if prop := expr.(Property); prop.Key != "статус" || prop.Value != "à" {
		t.Errorf("non-ASCII property = %#v", prop)
	}
}

func TestEvaluate_NonASCIIValues(t *testing.T) {
	g := graph.FromPages(
		page("A", "tags:: архив\n\n- a\n"),
		page("B", "status:: à\n\n- b\n"),
	)
	if got := run(t, g, "(page-tags архив)"); got != "A" {
		t.Errorf("page-tags got %q, want A", got)
	}
	if got := run(t, g, "(property status à)"); got != "B" {
		t.Errorf("property got %q, want B", got)
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, q := range []string{
		"",
		"(and",
		"(unknown [[x]])",
		"(task SOMEDAY)",
		"(priority z)",
		"(between [[2024-01-01]])",
		"(between [[soon]] [[later]])",
		"(and)",
		"(page [[a]]) extra",
		`"unterminated`,
		"bare",
	} {
		if _, err := Parse(q); err == nil {
			t.Errorf("Parse(%q): expected error", q)
		}
	}
}

func TestEvaluate_TagsAndProperty(t *testing.T) {
	g := graph.FromPages(
		page("A", "tags:: project\n\n- a\n"),
		page("B", "tags:: project\nstatus:: active\n\n- b\n"),
		page("C", "status:: active\n\n- c\n"),
	)
	if got := run(t, g, "(and (page-tags [[project]]) (property status active))"); got != "B" {
		t.Errorf("got %q, want B", got)
	}
	if got := run(t, g, "(property :status)"); got != "B,C" {
		t.Errorf("got %q, want B,C", got)
	}
	if got := run(t, g, "(not (page-tags project))"); got != "C" {
		t.Errorf("got %q, want C", got)
	}
}

func TestEvaluate_TasksPriorityAndText(t *testing.T) {
	g := graph.FromPages(
		page("One", "- TODO [#A] write tests\n"),
		page("Two", "- parent\n  - DONE nested thing\n"),
		page("Three", "- plain Needle in text\n"),
	)
	if got := run(t, g, "(task TODO DONE)"); got != "One,Two" {
		t.Errorf("task = %q", got)
	}
	if got := run(t, g, "(priority a)"); got != "One" {
		t.Errorf("priority = %q", got)
	}
	if got := run(t, g, `"needle"`); got != "Three" {
		t.Errorf("text = %q", got)
	}
}

func TestEvaluate_BetweenAndPage(t *testing.T) {
	j1 := parser.ParsePage("journals/2024_01_10.md", []byte("- x\n"), true)
	j2 := parser.ParsePage("journals/2024_01_25.md", []byte("- y\n"), true)
	g := graph.FromPages(j1, j2, page("Dated", "date:: 2024-01-12\n\n- z\n"), page("Target", "alias:: tgt\n\n- t\n"))

	if got := run(t, g, "(between [[Jan 1st, 2024]] [[2024-01-15]])"); got != "2024-01-10,Dated" {
		t.Errorf("between = %q", got)
	}
	if got := run(t, g, "(between [[today]] [[2024-01-31]])"); got != "2024-01-25" {
		t.Errorf("between relative = %q", got)
	}
	if got := run(t, g, "(page [[tgt]])"); got != "Target" {
		t.Errorf("page = %q", got)
	}
}

func TestEvaluate_NamespaceAndReference(t *testing.T) {
	g := graph.FromPages(
		page("Lore", "- root\n"),
		page("Lore___Places", "- see [[Lore]]\n"),
		page("Lore___People", "- people\n"),
		page("Elsewhere", "- mentions #lore\n"),
	)
	if got := run(t, g, "(namespace [[lore]])"); got != "Lore/Places,Lore/People" {
		t.Errorf("namespace = %q", got)
	}
	if got := run(t, g, "[[Lore]]"); got != "Lore,Lore/Places,Elsewhere" {
		t.Errorf("reference = %q", got)
	}
}

func TestEvaluate_InsertionOrder(t *testing.T) {
	g := graph.FromPages(page("Zeta", "tags:: x\n"), page("Alpha", "tags:: x\n"), page("Mid", "tags:: x\n"))
	if got := run(t, g, "(page-tags x)"); got != "Zeta,Alpha,Mid" {
		t.Errorf("order = %q", got)
	}
}

func TestSort_StableDescending(t *testing.T) {
	pages := []*models.Page{
		page("Alpha", "rank:: 1\n"),
		page("Beta", "rank:: 1\n"),
		page("Gamma", "rank:: 0\n"),
	}
	byName := append([]*models.Page(nil), pages[:2]...)
	Sort(byName, Options{SortBy: "name", SortDesc: true})
	if got := names(byName); got != "Beta,Alpha" {
		t.Errorf("name desc = %q", got)
	}

	Sort(pages, Options{SortBy: "rank", SortDesc: true})
	if got := names(pages); got != "Alpha,Beta,Gamma" {
		t.Errorf("rank desc = %q, ties must keep input order", got)
	}
}

func TestParseOptions(t *testing.T) {
	opts := ParseOptions(map[string]string{
		OptProperties: "[:page :status]",
		OptSortBy:     ":status",
		OptSortDesc:   "true",
	})
	if !opts.Table || opts.SortBy != "status" || !opts.SortDesc {
		t.Errorf("opts = %+v", opts)
	}
	if len(opts.Properties) != 2 || opts.Properties[1] != "status" {
		t.Errorf("properties = %v", opts.Properties)
	}
	if ParseOptions(map[string]string{OptTable: "false"}).Table {
		t.Error("query-table:: false should disable table mode")
	}
}

func TestRender_TableAutoColumns(t *testing.T) {
	pages := []*models.Page{
		page("A", "tags:: x, y\n\n- a\n"),
		page("B", "status:: done|ok\n\n- b\n"),
	}
	link := func(p *models.Page, inTable bool) string { return "[[" + p.Name + "]]" }
	lines := Render(pages, Options{Table: true}, link)
	want := []string{
		"| Page | Tags | Status |",
		"| --- | --- | --- |",
		"| [[A]] | x, y |  |",
		`| [[B]] |  | done\|ok |`,
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("table =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

func TestRender_ListAndEmpty(t *testing.T) {
	link := func(p *models.Page, inTable bool) string { return "[[" + p.Name + "]]" }
	lines := Render([]*models.Page{page("A", "")}, Options{}, link)
	if len(lines) != 1 || lines[0] != "- [[A]]" {
		t.Errorf("list = %v", lines)
	}
	if empty := Render(nil, Options{Table: true}, link); !strings.Contains(strings.Join(empty, "\n"), "No pages match") {
		t.Errorf("empty = %v", empty)
	}
}
