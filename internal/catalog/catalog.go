package catalog

import "github.com/starford/logpress/internal/resolver"

// Catalog records converted pages, their outgoing links and stubs.
// Consumers should depend on this interface rather than *DB.
type Catalog interface {
	UpsertPage(p PageRow, body string, links []LinkRow) error
	DeletePage(path string) error
	GetPage(path string) (*PageRow, error)
	ListPages(limit, offset int, tag string) ([]PageRow, int, error)
	AllChecksums() (map[string]string, error)
	Backlinks(target string) ([]LinkRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Stubs() ([]PageRow, error)
	Close() error
}

// Verify *DB satisfies Catalog at compile time.
var _ Catalog = (*DB)(nil)

// LinkRow is one outgoing reference of a page. Source is the output path
// of the referring page and Target the link target it resolved to.
type LinkRow struct {
	Source string        `json:"source"`
	Target string        `json:"target"`
	Kind   resolver.Kind `json:"kind"`
}
