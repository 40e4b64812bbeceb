package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/storage"
	"github.com/starford/logpress/internal/testutil"
)

var fixture = map[string]string{
	"pages/Alpha.md":         "alias:: al\ntags:: project\n\n- links to [[Ghost]] and [[al]]\n- {{query (page-tags project)}}\n  query-table:: false\n",
	"pages/Beta.md":          "tags:: project\n\n- see [[Alpha]] and [[ghost]]\n",
	"pages/Secret.md":        "private:: true\n\n- hidden\n",
	"journals/2024_01_15.md": "- met [[Beta]]\n",
	"assets/pic.png":         "\x89PNG",
}

func options() Options {
	return Options{
		PagesDir:     "pages",
		JournalsDir:  "journals",
		AssetsDir:    "assets",
		CreateStubs:  true,
		JournalIndex: true,
		Workers:      4,
	}
}

func clock() time.Time { return time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC) }

func read(t *testing.T, out storage.Provider, path string) string {
	t.Helper()
	data, err := out.Read(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRun(t *testing.T) {
	_, in := testutil.TestGraph(t, fixture)
	out := testutil.TestOutput(t)
	db := testutil.TestDB(t)
	c := New(in, out, options(), testutil.Logger(), WithCatalog(db), WithClock(clock))

	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Published != 3 || res.Journals != 1 || res.Private != 1 || res.Stubs != 1 || res.Assets != 1 {
		t.Errorf("result = %+v", res)
	}

	alpha := read(t, out, "Alpha.md")
	if !strings.HasPrefix(alpha, "---\ntitle: Alpha\naliases:\n  - al\ntags:\n  - project\n---\n") {
		t.Errorf("Alpha front matter:\n%s", alpha)
	}
	for _, want := range []string{"[[ghost|Ghost]]", "[[Alpha|al]]", "- [[Beta]]"} {
		if !strings.Contains(alpha, want) {
			t.Errorf("Alpha missing %q:\n%s", want, alpha)
		}
	}
	if strings.Contains(alpha, "query-table") {
		t.Errorf("query option leaked:\n%s", alpha)
	}

	ghost := read(t, out, "ghost.md")
	if !strings.Contains(ghost, "stub: true") || !strings.Contains(ghost, "- [[Alpha]]\n- [[Beta]]") {
		t.Errorf("stub page:\n%s", ghost)
	}

	journal := read(t, out, "journals/2024-01-15.md")
	if !strings.Contains(journal, "date: \"2024-01-15\"") || !strings.Contains(journal, "- met [[Beta]]") {
		t.Errorf("journal:\n%s", journal)
	}
	index := read(t, out, "journals/index.md")
	if !strings.Contains(index, "![[journals/2024-01-15]]") {
		t.Errorf("journal index:\n%s", index)
	}
	if got := read(t, out, "assets/pic.png"); got != fixture["assets/pic.png"] {
		t.Errorf("asset = %q", got)
	}
	if _, err := out.Read("Secret.md"); err == nil {
		t.Error("private page was published")
	}

	stubs, err := db.Stubs()
	if err != nil || len(stubs) != 1 || stubs[0].Path != "ghost.md" {
		t.Errorf("catalog stubs = %+v, %v", stubs, err)
	}
	backlinks, _ := db.Backlinks("Beta")
	if len(backlinks) != 1 || backlinks[0].Source != "journals/2024-01-15.md" {
		t.Errorf("backlinks = %+v", backlinks)
	}
}

func TestRun_SecondRunIsUnchanged(t *testing.T) {
	_, in := testutil.TestGraph(t, fixture)
	out := testutil.TestOutput(t)
	c := New(in, out, options(), testutil.Logger(), WithCatalog(testutil.TestDB(t)), WithClock(clock))

	if _, err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// three pages, the stub and the journal index
	if res.Unchanged != 5 || res.Removed != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_RemovesStaleOutputs(t *testing.T) {
	root, in := testutil.TestGraph(t, fixture)
	out := testutil.TestOutput(t)
	c := New(in, out, options(), testutil.Logger(), WithCatalog(testutil.TestDB(t)), WithClock(clock))
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, out.Root(), "quartz.config.ts", "keep me")

	if err := os.Remove(filepath.Join(root, "pages", "Beta.md")); err != nil {
		t.Fatal(err)
	}
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Removed != 1 {
		t.Errorf("removed = %d, want 1", res.Removed)
	}
	if _, err := out.Read("Beta.md"); err == nil {
		t.Error("Beta.md still present")
	}
	if _, err := out.Read("quartz.config.ts"); err != nil {
		t.Error("unrelated output file was removed")
	}
	// The journal still links to Beta, which now resolves to a stub.
	if _, err := out.Read("beta.md"); err != nil {
		t.Errorf("expected stub for removed page: %v", err)
	}
}

func TestRun_EmptyGraph(t *testing.T) {
	_, in := testutil.TestGraph(t, map[string]string{"pages/Secret.md": "private:: true\n"})
	c := New(in, testutil.TestOutput(t), options(), testutil.Logger())
	_, err := c.Run(context.Background())
	if !errors.Is(err, apperr.ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestRun_DuplicateNamesAreCounted(t *testing.T) {
	_, in := testutil.TestGraph(t, map[string]string{
		"pages/Gamma.md":   "- first\n",
		"pages/sub/gamma.md": "- second\n",
	})
	out := testutil.TestOutput(t)
	c := New(in, out, options(), testutil.Logger())
	res, err := c.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Conflicts != 1 || res.Published != 1 {
		t.Errorf("result = %+v", res)
	}
	if got := read(t, out, "gamma.md"); !strings.Contains(got, "- second") {
		t.Errorf("later page should win:\n%s", got)
	}
}
