package gitdates

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func commitFiles(t *testing.T, repo *git.Repository, root string, when time.Time, files map[string]string) {
	t.Helper()
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		full := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	sig := &object.Signature{Name: "test", Email: "test@example.com", When: when}
	if _, err := wt.Commit("update", &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	if err != nil {
		t.Fatal(err)
	}
	jan := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	commitFiles(t, repo, root, jan, map[string]string{"graph/pages/a.md": "- one", "README.txt": "x"})
	commitFiles(t, repo, root, feb, map[string]string{"graph/pages/a.md": "- two", "graph/pages/b.md": "- b"})

	got, err := Load(context.Background(), filepath.Join(root, "graph"), discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries: %+v", len(got), got)
	}
	if d := got["pages/a.md"]; d.Created != "2024-01-01" || d.Modified != "2024-02-01" {
		t.Errorf("a.md = %+v", d)
	}
	if d := got["pages/b.md"]; d.Created != "2024-02-01" || d.Modified != "2024-02-01" {
		t.Errorf("b.md = %+v", d)
	}
}

func TestLoad_NotARepository(t *testing.T) {
	got, err := Load(context.Background(), t.TempDir(), discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
}

func TestLoad_EmptyRepository(t *testing.T) {
	root := t.TempDir()
	if _, err := git.PlainInit(root, false); err != nil {
		t.Fatal(err)
	}
	got, err := Load(context.Background(), root, discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
}
