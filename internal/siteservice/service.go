// Package siteservice answers read queries about the converted site: the
// catalog for pages, links and search, and the latest build snapshot for
// resolution and queries.
package siteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/catalog"
	"github.com/starford/logpress/internal/convert"
	"github.com/starford/logpress/internal/query"
	"github.com/starford/logpress/internal/resolver"
	"github.com/starford/logpress/internal/storage"
	"github.com/starford/logpress/internal/transform"
)

// PageDetail is the full representation of a converted page.
type PageDetail struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Stub      bool      `json:"stub"`
	Journal   bool      `json:"journal"`
	Backlinks []string  `json:"backlinks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PageListItem is a lightweight item in a list response.
type PageListItem struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Stub      bool      `json:"stub,omitempty"`
	Journal   bool      `json:"journal,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Resolution describes where a reference points.
type Resolution struct {
	Ref    string        `json:"ref"`
	Kind   resolver.Kind `json:"kind"`
	Target string        `json:"target"`
	Path   string        `json:"path"`
	Title  string        `json:"title"`
}

// QueryPage is one page matched by a query.
type QueryPage struct {
	Name   string   `json:"name"`
	Target string   `json:"target"`
	Title  string   `json:"title"`
	Tags   []string `json:"tags"`
}

// QueryResult is the outcome of a query against the latest build.
type QueryResult struct {
	Query    string      `json:"query"`
	Pages    []QueryPage `json:"pages"`
	Markdown string      `json:"markdown"`
}

// Service coordinates the catalog, the output tree and the latest snapshot.
type Service struct {
	output storage.Provider
	db     catalog.Catalog
	snap   atomic.Pointer[convert.Snapshot]
}

// NewService creates a new site service.
func NewService(output storage.Provider, db catalog.Catalog) *Service {
	return &Service{output: output, db: db}
}

// Publish makes snap the snapshot served by Resolve and Query.
func (s *Service) Publish(snap *convert.Snapshot) {
	if snap != nil {
		s.snap.Store(snap)
	}
}

// Snapshot returns the latest published snapshot or nil.
func (s *Service) Snapshot() *convert.Snapshot {
	return s.snap.Load()
}

// GetPage returns a converted page with its content and backlinks.
func (s *Service) GetPage(_ context.Context, path string) (*PageDetail, error) {
	if !strings.HasSuffix(path, ".md") {
		path += ".md"
	}
	row, err := s.db.GetPage(path)
	if err != nil {
		return nil, err
	}
	data, err := s.output.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	links, err := s.db.Backlinks(strings.TrimSuffix(path, ".md"))
	if err != nil {
		return nil, err
	}
	backlinks := make([]string, 0, len(links))
	for _, l := range links {
		backlinks = append(backlinks, l.Source)
	}
	return &PageDetail{
		Path:      row.Path,
		Name:      row.Name,
		Title:     row.Title,
		Source:    row.Source,
		Content:   string(data),
		Checksum:  row.Checksum,
		Tags:      nonNilSlice(row.Tags),
		Stub:      row.Stub,
		Journal:   row.Journal,
		Backlinks: backlinks,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// ListPages returns paginated pages with optional tag filter.
func (s *Service) ListPages(_ context.Context, limit, offset int, tag string) ([]PageListItem, int, error) {
	rows, total, err := s.db.ListPages(limit, offset, tag)
	if err != nil {
		return nil, 0, err
	}
	return listItems(rows), total, nil
}

// Stubs returns every stub page written by the latest builds.
func (s *Service) Stubs(_ context.Context) ([]PageListItem, error) {
	rows, err := s.db.Stubs()
	if err != nil {
		return nil, err
	}
	return listItems(rows), nil
}

// Search delegates full-text search to the catalog.
func (s *Service) Search(_ context.Context, q string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(q, limit)
}

// Backlinks returns every link pointing at target, a link target such as
// "Alpha" or "journals/2024-01-15".
func (s *Service) Backlinks(_ context.Context, target string) ([]catalog.LinkRow, error) {
	links, err := s.db.Backlinks(strings.TrimSuffix(target, ".md"))
	if err != nil {
		return nil, err
	}
	return nonNilSlice(links), nil
}

// Resolve resolves ref against the latest snapshot. A miss reports where
// the stub for ref would be written; nothing is registered.
func (s *Service) Resolve(_ context.Context, ref string) (*Resolution, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	o := resolver.New(snap.Graph, nil).Resolve(ref, "")
	return &Resolution{
		Ref:    ref,
		Kind:   o.Kind,
		Target: o.Page.Target(),
		Path:   o.Page.OutputPath(),
		Title:  o.Page.Title(),
	}, nil
}

// Query evaluates a query expression such as "(page-tags project)" against
// the latest snapshot and renders the result the way an inline query is
// rendered.
func (s *Service) Query(_ context.Context, q string) (*QueryResult, error) {
	snap := s.snap.Load()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	expr, err := query.Parse(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidQuery, err)
	}
	env := query.Env{Resolver: resolver.New(snap.Graph, nil), Now: snap.BuiltAt}
	pages := query.Evaluate(expr, snap.Graph, env)
	opts := query.Options{Table: true}
	query.Sort(pages, opts)

	res := &QueryResult{Query: q, Pages: make([]QueryPage, 0, len(pages))}
	for _, p := range pages {
		res.Pages = append(res.Pages, QueryPage{
			Name:   p.Name,
			Target: p.Target(),
			Title:  p.Title(),
			Tags:   nonNilSlice(p.Tags),
		})
	}
	res.Markdown = strings.Join(query.Render(pages, opts, transform.PageLink), "\n") + "\n"
	return res, nil
}

func listItems(rows []catalog.PageRow) []PageListItem {
	items := make([]PageListItem, len(rows))
	for i, r := range rows {
		items[i] = PageListItem{
			Path:      r.Path,
			Name:      r.Name,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			Stub:      r.Stub,
			Journal:   r.Journal,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
