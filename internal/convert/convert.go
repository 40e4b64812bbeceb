// Package convert runs one batch conversion of a graph directory into a
// flat markdown site.
package convert

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/catalog"
	"github.com/starford/logpress/internal/checksum"
	"github.com/starford/logpress/internal/frontmatter"
	"github.com/starford/logpress/internal/gitdates"
	"github.com/starford/logpress/internal/graph"
	"github.com/starford/logpress/internal/models"
	"github.com/starford/logpress/internal/resolver"
	"github.com/starford/logpress/internal/storage"
	"github.com/starford/logpress/internal/stub"
	"github.com/starford/logpress/internal/transform"
)

// Options controls a conversion.
type Options struct {
	PagesDir       string
	JournalsDir    string
	AssetsDir      string
	IncludePrivate bool
	CreateStubs    bool
	GitDates       bool
	JournalIndex   bool
	// Workers bounds both phases. Zero means GOMAXPROCS.
	Workers int
}

// Result summarizes one run.
type Result struct {
	Published int           `json:"published"`
	Journals  int           `json:"journals"`
	Private   int           `json:"private"`
	Stubs     int           `json:"stubs"`
	Assets    int           `json:"assets"`
	Conflicts int           `json:"conflicts"`
	Unchanged int           `json:"unchanged"`
	Removed   int           `json:"removed"`
	Duration  time.Duration `json:"duration"`

	Snapshot *Snapshot `json:"-"`
}

// Snapshot is the frozen state of a completed build.
type Snapshot struct {
	Graph   *graph.Graph
	BuiltAt time.Time
}

// Converter converts the graph under input into output.
type Converter struct {
	input   storage.Provider
	output  storage.Provider
	catalog catalog.Catalog
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithCatalog records every output in cat and enables removal of outputs
// from earlier runs.
func WithCatalog(cat catalog.Catalog) Option {
	return func(c *Converter) { c.catalog = cat }
}

// WithClock sets the clock used for relative query dates.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) { c.now = now }
}

// New creates a Converter.
func New(input, output storage.Provider, opts Options, logger *slog.Logger, options ...Option) *Converter {
	c := &Converter{
		input:  input,
		output: output,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
	for _, o := range options {
		o(c)
	}
	if c.opts.Workers <= 0 {
		c.opts.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// rendered is one finished output file.
type rendered struct {
	path    string
	data    []byte
	page    *models.Page
	links   []catalog.LinkRow
	summary string
}

// Run performs one full conversion.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := c.now()
	res := &Result{}

	sources, err := c.sources()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("convert: %w", apperr.ErrNoPages)
	}

	// Phase 1: parse everything, then freeze the graph.
	g, err := graph.Build(ctx, sources, graph.Options{Workers: c.opts.Workers, IncludePrivate: c.opts.IncludePrivate})
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	res.Private = len(g.Private())
	for _, conflict := range g.Conflicts() {
		c.logger.Warn("duplicate page name",
			slog.String("name", conflict.Key),
			slog.Bool("alias", conflict.Alias),
			slog.String("kept", conflict.Kept),
			slog.String("dropped", conflict.Dropped),
		)
	}
	res.Conflicts = len(g.Conflicts())
	if g.Len() == 0 {
		return nil, fmt.Errorf("convert: %w", apperr.ErrNoPages)
	}
	if c.opts.GitDates {
		c.applyGitDates(ctx, g)
	}

	// Phase 2: transform against the frozen graph.
	stubs := stub.New(g)
	env := &transform.Env{
		Graph:    g,
		Resolver: resolver.New(g, stubs),
		Now:      c.now(),
		Logger:   c.logger,
	}
	outputs, err := c.transform(ctx, g, transform.New(env))
	if err != nil {
		return nil, err
	}

	w, err := c.newWriter()
	if err != nil {
		return nil, err
	}
	for _, out := range outputs {
		if err := w.write(out); err != nil {
			return nil, err
		}
		if out.page.Journal {
			res.Journals++
		}
		res.Published++
	}

	if c.opts.CreateStubs {
		for _, out := range c.stubPages(g, w) {
			if err := w.write(out); err != nil {
				return nil, err
			}
			res.Stubs++
		}
	}
	if c.opts.JournalIndex && res.Journals > 0 {
		if out, ok := c.journalIndex(g); ok {
			if err := w.write(out); err != nil {
				return nil, err
			}
		}
	}
	if res.Assets, err = c.copyAssets(w); err != nil {
		return nil, err
	}
	if res.Removed, err = w.removeStale(); err != nil {
		return nil, err
	}

	res.Unchanged = w.unchanged
	res.Duration = c.now().Sub(start)
	res.Snapshot = &Snapshot{Graph: g, BuiltAt: c.now()}
	c.logger.Info("conversion finished",
		slog.Int("published", res.Published),
		slog.Int("journals", res.Journals),
		slog.Int("private", res.Private),
		slog.Int("stubs", res.Stubs),
		slog.Int("assets", res.Assets),
		slog.Int("conflicts", res.Conflicts),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("removed", res.Removed),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// sources reads every page and journal file. Unreadable files are logged
// and skipped.
func (c *Converter) sources() ([]graph.Source, error) {
	var out []graph.Source
	for _, dir := range []struct {
		name    string
		journal bool
	}{{c.opts.PagesDir, false}, {c.opts.JournalsDir, true}} {
		if dir.name == "" {
			continue
		}
		metas, err := c.input.List(dir.name)
		if err != nil {
			return nil, fmt.Errorf("convert: list %s: %w", dir.name, err)
		}
		for _, m := range metas {
			data, err := c.input.Read(m.Path)
			if err != nil {
				c.logger.Warn("read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				continue
			}
			out = append(out, graph.Source{Path: m.Path, Data: data, Journal: dir.journal})
		}
	}
	return out, nil
}

func (c *Converter) applyGitDates(ctx context.Context, g *graph.Graph) {
	dates, err := gitdates.Load(ctx, c.input.Root(), c.logger)
	if err != nil {
		c.logger.Warn("git dates unavailable", slog.String("error", err.Error()))
		return
	}
	for _, p := range g.Pages() {
		if d, ok := dates[p.Path]; ok {
			p.Created, p.Modified = d.Created, d.Modified
		}
	}
}

func (c *Converter) transform(ctx context.Context, g *graph.Graph, pipe *transform.Pipeline) ([]rendered, error) {
	pages := g.Pages()
	outputs := make([]rendered, len(pages))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.opts.Workers)
	for i, p := range pages {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			out := pipe.Transform(p)
			doc, err := frontmatter.Document(p, out.Markdown)
			if err != nil {
				return fmt.Errorf("convert: front matter of %s: %w", p.Path, err)
			}
			links := make([]catalog.LinkRow, 0, len(out.Links))
			for _, l := range out.Links {
				links = append(links, catalog.LinkRow{Target: l.Target, Kind: l.Kind})
			}
			outputs[i] = rendered{path: p.OutputPath(), data: doc, page: p, links: links, summary: p.Text}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("convert: transform: %w", err)
	}
	return outputs, nil
}

// stubPages renders every registered stub whose path no real page owns.
func (c *Converter) stubPages(g *graph.Graph, w *writer) []rendered {
	var out []rendered
	for _, info := range g.Stubs() {
		p := info.Page
		path := p.OutputPath()
		if w.owns(path) {
			c.logger.Debug("stub shadowed by page", slog.String("path", path))
			continue
		}
		var b strings.Builder
		b.WriteString("This page has no content yet. Pages linking here:\n\n")
		for _, name := range info.Referrers {
			if ref, ok := g.Page(name); ok {
				b.WriteString("- " + transform.PageLink(ref, false) + "\n")
			} else {
				b.WriteString("- " + name + "\n")
			}
		}
		doc, err := frontmatter.Document(p, b.String())
		if err != nil {
			c.logger.Warn("stub front matter failed", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		out = append(out, rendered{path: path, data: doc, page: p})
	}
	return out
}

// journalIndex lists journal pages newest first, each embedded below its
// heading.
func (c *Converter) journalIndex(g *graph.Graph) (rendered, bool) {
	var journals []*models.Page
	for _, p := range g.Pages() {
		if p.Journal && p.Date != nil {
			journals = append(journals, p)
		}
	}
	if len(journals) == 0 {
		return rendered{}, false
	}
	slices.SortStableFunc(journals, func(a, b *models.Page) int {
		return cmp.Compare(b.Date.Unix(), a.Date.Unix())
	})

	var b strings.Builder
	for _, p := range journals {
		target := p.Target()
		fmt.Fprintf(&b, "## [[%s|%s]]\n\n![[%s]]\n\n---\n\n", target, p.Title(), target)
	}
	index := &models.Page{Name: "journals/index", Journal: false}
	index.Properties.Set("title", models.PropertyValue{Kind: models.PropertyString, Raw: "📅 Journals"})
	doc, err := frontmatter.Document(index, b.String())
	if err != nil {
		c.logger.Warn("journal index failed", slog.String("error", err.Error()))
		return rendered{}, false
	}
	return rendered{path: "journals/index.md", data: doc, page: index}, true
}

// copyAssets copies every file under the assets directory unchanged.
func (c *Converter) copyAssets(w *writer) (int, error) {
	if c.opts.AssetsDir == "" {
		return 0, nil
	}
	files, err := c.input.Files(c.opts.AssetsDir)
	if err != nil {
		return 0, fmt.Errorf("convert: list assets: %w", err)
	}
	n := 0
	for _, f := range files {
		data, err := c.input.Read(f.Path)
		if err != nil {
			c.logger.Warn("asset read failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		if err := w.writeFile(f.Path, data); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// writer writes outputs, skipping unchanged files, and tracks what this run
// produced.
type writer struct {
	c         *Converter
	onDisk    map[string]string
	known     map[string]string
	produced  map[string]string
	lower     map[string]string
	unchanged int
}

func (c *Converter) newWriter() (*writer, error) {
	files, err := c.output.Files("")
	if err != nil {
		return nil, fmt.Errorf("convert: list output: %w", err)
	}
	w := &writer{
		c:        c,
		onDisk:   make(map[string]string, len(files)),
		produced: make(map[string]string),
		lower:    make(map[string]string),
	}
	for _, f := range files {
		w.onDisk[f.Path] = f.Checksum
	}
	w.known = w.onDisk
	if c.catalog != nil {
		if w.known, err = c.catalog.AllChecksums(); err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
	}
	return w, nil
}

// owns reports whether a page of this run was written at path, compared
// case-insensitively.
func (w *writer) owns(path string) bool {
	_, ok := w.lower[strings.ToLower(path)]
	return ok
}

func (w *writer) write(out rendered) error {
	if prev, ok := w.produced[out.path]; ok {
		w.c.logger.Warn("output path written twice",
			slog.String("path", out.path),
			slog.String("first", prev),
			slog.String("second", out.page.Path))
	}
	w.produced[out.path] = out.page.Path
	w.lower[strings.ToLower(out.path)] = out.path

	sum := checksum.Sum(out.data)
	disk, exists := w.onDisk[out.path]
	if exists && disk == sum && w.known[out.path] == sum {
		w.unchanged++
		return nil
	}
	if err := w.c.output.Write(out.path, out.data); err != nil {
		return fmt.Errorf("convert: write %s: %w", out.path, err)
	}
	w.c.logger.Debug("page written", slog.String("path", out.path))
	if w.c.catalog == nil {
		return nil
	}
	row := catalog.PageRow{
		Path:      out.path,
		Name:      out.page.Name,
		Title:     out.page.Title(),
		Source:    out.page.Path,
		Checksum:  sum,
		Tags:      out.page.Tags,
		Stub:      out.page.Stub,
		Journal:   out.page.Journal,
		UpdatedAt: w.c.now(),
	}
	if err := w.c.catalog.UpsertPage(row, out.summary, out.links); err != nil {
		return fmt.Errorf("convert: record %s: %w", out.path, err)
	}
	return nil
}

// writeFile writes a file that is not a page.
func (w *writer) writeFile(path string, data []byte) error {
	w.produced[path] = path
	if w.onDisk[path] == checksum.Sum(data) {
		return nil
	}
	if err := w.c.output.Write(path, data); err != nil {
		return fmt.Errorf("convert: write %s: %w", path, err)
	}
	return nil
}

// removeStale deletes outputs recorded by earlier runs that this run did
// not produce. Without a catalog nothing is removed.
func (w *writer) removeStale() (int, error) {
	if w.c.catalog == nil {
		return 0, nil
	}
	n := 0
	for path := range w.known {
		if _, ok := w.produced[path]; ok {
			continue
		}
		if _, ok := w.onDisk[path]; ok {
			if err := w.c.output.Delete(path); err != nil {
				return n, fmt.Errorf("convert: remove %s: %w", path, err)
			}
		}
		if err := w.c.catalog.DeletePage(path); err != nil {
			return n, fmt.Errorf("convert: %w", err)
		}
		w.c.logger.Debug("stale output removed", slog.String("path", path))
		n++
	}
	return n, nil
}

// IsEmpty reports whether err means the graph had nothing to convert.
func IsEmpty(err error) bool {
	return errors.Is(err, apperr.ErrNoPages)
}
