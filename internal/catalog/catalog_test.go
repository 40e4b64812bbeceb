package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/resolver"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(path, title, checksum string, tags ...string) PageRow {
	return PageRow{Path: path, Name: title, Title: title, Checksum: checksum, Tags: tags, UpdatedAt: time.Now()}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages`).Scan(&count); err != nil {
		t.Fatalf("pages table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetPage(t *testing.T) {
	db := testDB(t)
	r := row("Alpha.md", "Alpha", "abc123", "go", "test")
	r.Source = "pages/Alpha.md"
	if err := db.UpsertPage(r, "hello world", nil); err != nil {
		t.Fatalf("UpsertPage: %v", err)
	}
	got, err := db.GetPage("Alpha.md")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if got.Checksum != "abc123" || got.Source != "pages/Alpha.md" || len(got.Tags) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestGetPage_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetPage("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(row("c.md", "c", "2"), "body", []LinkRow{{Target: "b", Kind: resolver.KindAlias}})
	_ = db.UpsertPage(row("a.md", "a", "1"), "body", []LinkRow{{Target: "b", Kind: resolver.KindExact}})

	bl, err := db.Backlinks("b")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
	if bl[0].Source != "a.md" || bl[1].Kind != resolver.KindAlias {
		t.Errorf("backlinks = %+v", bl)
	}
}

func TestDeletePage(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(row("del.md", "del", "x"), "body", []LinkRow{{Target: "target"}})

	if err := db.DeletePage("del.md"); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if _, err := db.GetPage("del.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted page still present: %v", err)
	}
	bl, _ := db.Backlinks("target")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestDeletePage_ReportsFailure(t *testing.T) {
	db := testDB(t)
	if err := db.UpsertPage(row("keep.md", "keep", "x"), "body", nil); err != nil {
		t.Fatalf("UpsertPage: %v", err)
	}
	if _, err := db.conn.Exec(`DROP TABLE links`); err != nil {
		t.Fatalf("drop links: %v", err)
	}

	if err := db.DeletePage("keep.md"); err == nil {
		t.Fatal("expected error when links table is missing")
	}
	if _, err := db.GetPage("keep.md"); err != nil {
		t.Errorf("page should survive a failed delete: %v", err)
	}
}

func TestUpsertReplacesLinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(row("up.md", "Old", "1"), "old body", []LinkRow{{Target: "x"}})
	_ = db.UpsertPage(row("up.md", "New", "2"), "new body", []LinkRow{{Target: "y"}})

	sums, _ := db.AllChecksums()
	if sums["up.md"] != "2" {
		t.Errorf("checksum = %q, want 2", sums["up.md"])
	}
	if bl, _ := db.Backlinks("x"); len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	if bl, _ := db.Backlinks("y"); len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestListPages(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(row("b.md", "b", "1", "Project"), "", nil)
	_ = db.UpsertPage(row("a.md", "a", "1", "project", "go"), "", nil)
	_ = db.UpsertPage(row("c.md", "c", "1"), "", nil)

	all, total, err := db.ListPages(2, 0, "")
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if total != 3 || len(all) != 2 || all[0].Path != "a.md" {
		t.Errorf("total = %d, rows = %+v", total, all)
	}

	tagged, total, err := db.ListPages(10, 0, "project")
	if err != nil {
		t.Fatalf("ListPages(tag): %v", err)
	}
	if total != 2 || len(tagged) != 2 {
		t.Errorf("tag filter: total = %d, rows = %+v", total, tagged)
	}
}

func TestStubs(t *testing.T) {
	db := testDB(t)
	s := row("ghost-page.md", "ghost page", "1")
	s.Stub = true
	_ = db.UpsertPage(s, "", nil)
	_ = db.UpsertPage(row("real.md", "real", "1"), "", nil)

	stubs, err := db.Stubs()
	if err != nil {
		t.Fatalf("Stubs: %v", err)
	}
	if len(stubs) != 1 || stubs[0].Path != "ghost-page.md" || !stubs[0].Stub {
		t.Errorf("stubs = %+v", stubs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertPage(row("s.md", "Search Me", "1"), "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}
