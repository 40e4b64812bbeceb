package graph

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/parser"
)

// Source is one raw page file.
type Source struct {
	Path    string
	Data    []byte
	Journal bool
}

// Options controls a build.
type Options struct {
	// Workers bounds parse concurrency. Zero means GOMAXPROCS.
	Workers int
	// IncludePrivate keeps pages marked private:: true.
	IncludePrivate bool
}

// Build parses every source concurrently, then reduces the results in
// source order into a single graph. The reduction starts only after all
// parses have finished.
func Build(ctx context.Context, sources []Source, opts Options) (*Graph, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	parsed := make([]*models.Page, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, src := range sources {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			parsed[i] = parser.ParsePage(src.Path, src.Data, src.Journal)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("graph: parse: %w", err)
	}

	pages := make([]*models.Page, 0, len(parsed))
	var private []string
	for _, p := range parsed {
		if !opts.IncludePrivate && IsPrivate(p) {
			private = append(private, p.Path)
			continue
		}
		pages = append(pages, p)
	}
	g := FromPages(pages...)
	g.private = private
	return g, nil
}

// IsPrivate reports whether the page carries private:: true.
func IsPrivate(p *models.Page) bool {
	v, ok := p.Properties.Get("private")
	return ok && strings.EqualFold(v.Raw, "true")
}
