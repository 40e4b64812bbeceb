// Package gitdates derives page creation and modification dates from the
// history of the git repository holding the graph.
package gitdates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Dates are ISO dates (YYYY-MM-DD) from commit author times.
type Dates struct {
	Created  string
	Modified string
}

// Load walks the HEAD history of the repository containing dir and returns
// dates for every markdown file added or modified in it, keyed by slash path
// relative to dir. Deletions are ignored. A directory outside any repository,
// or a repository without commits, yields an empty map.
func Load(ctx context.Context, dir string, logger *slog.Logger) (map[string]Dates, error) {
	out := make(map[string]Dates)
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Debug("gitdates: not a repository", slog.String("dir", dir))
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gitdates: open: %w", err)
	}
	prefix, err := repoPrefix(repo, dir)
	if err != nil {
		return nil, err
	}

	ref, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gitdates: head: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("gitdates: log: %w", err)
	}
	defer iter.Close()

	commits := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits++
		names, err := touched(ctx, c)
		if err != nil {
			logger.Warn("gitdates: diff failed", slog.String("commit", c.Hash.String()), slog.String("error", err.Error()))
			return nil
		}
		day := c.Author.When.Format("2006-01-02")
		for _, name := range names {
			rel, ok := strings.CutPrefix(name, prefix)
			if !ok || !strings.HasSuffix(strings.ToLower(rel), ".md") {
				continue
			}
			// Newest first: the first sighting is the last modification,
			// the last one the creation.
			d, seen := out[rel]
			if !seen {
				d.Modified = day
			}
			d.Created = day
			out[rel] = d
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitdates: walk: %w", err)
	}
	logger.Debug("gitdates: loaded", slog.Int("commits", commits), slog.Int("files", len(out)))
	return out, nil
}

// touched lists paths added or modified by c relative to its first parent.
func touched(ctx context.Context, c *object.Commit) ([]string, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, err
	}
	var parent *object.Tree
	if c.NumParents() > 0 {
		p, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		if parent, err = p.Tree(); err != nil {
			return nil, err
		}
	}
	changes, err := object.DiffTreeWithOptions(ctx, parent, tree, nil)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil || action == merkletrie.Delete {
			continue
		}
		names = append(names, ch.To.Name)
	}
	return names, nil
}

// repoPrefix is dir relative to the worktree root, as a slash path ending in
// "/", or "" when dir is the root.
func repoPrefix(repo *git.Repository, dir string) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("gitdates: worktree: %w", err)
	}
	root, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return "", fmt.Errorf("gitdates: resolve root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("gitdates: resolve dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel) + "/", nil
}
