package catalog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/logpress/internal/apperr"
	"github.com/starford/logpress/internal/resolver"
)

// PageRow represents a row in the pages table. Path is the output path.
type PageRow struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Source    string    `json:"source,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	Stub      bool      `json:"stub,omitempty"`
	Journal   bool      `json:"journal,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

const pageColumns = `path, name, title, source, checksum, tags, stub, journal, updated_at`

// UpsertPage inserts or replaces a page, its FTS entry and links within a
// transaction. body is the searchable plain text.
func (db *DB) UpsertPage(p PageRow, body string, links []LinkRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if p.Tags == nil {
		p.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(p.Tags)

	_, err = tx.Exec(`
		INSERT INTO pages (path, name, title, source, checksum, tags, body, stub, journal, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name       = excluded.name,
			title      = excluded.title,
			source     = excluded.source,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			stub       = excluded.stub,
			journal    = excluded.journal,
			updated_at = excluded.updated_at
	`, p.Path, p.Name, p.Title, p.Source, p.Checksum, string(tagsJSON), body, p.Stub, p.Journal, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert page: %w", err)
	}

	if err := ftsUpsert(tx, p.Path, p.Title, body, p.Tags); err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, p.Path); err != nil {
		return fmt.Errorf("catalog: clear links: %w", err)
	}
	if len(links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, kind) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("catalog: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, l := range links {
			if _, err := stmt.Exec(p.Path, l.Target, int(l.Kind)); err != nil {
				return fmt.Errorf("catalog: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeletePage removes a page, its FTS entry and outgoing links.
func (db *DB) DeletePage(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete links: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pages WHERE path = ?`, path); err != nil {
		return fmt.Errorf("catalog: delete page: %w", err)
	}

	return tx.Commit()
}

// GetPage returns the row at path or apperr.ErrNotFound.
func (db *DB) GetPage(path string) (*PageRow, error) {
	row := db.conn.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE path = ?`, path)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("catalog: page %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get page: %w", err)
	}
	return p, nil
}

// ListPages returns a page of rows ordered by path and the total count.
// A non-empty tag filters on exact tag membership.
func (db *DB) ListPages(limit, offset int, tag string) ([]PageRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	where, args := "", []any{}
	if tag != "" {
		where = `WHERE EXISTS (SELECT 1 FROM json_each(pages.tags) WHERE lower(json_each.value) = lower(?))`
		args = append(args, tag)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM pages `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count pages: %w", err)
	}

	rows, err := db.conn.Query(`SELECT `+pageColumns+` FROM pages `+where+` ORDER BY path LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list pages: %w", err)
	}
	defer rows.Close()
	out, err := scanPages(rows)
	return out, total, err
}

// AllChecksums maps every recorded output path to its checksum.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns every link whose target is target, ordered by source.
func (db *DB) Backlinks(target string) ([]LinkRow, error) {
	rows, err := db.conn.Query(`SELECT source, target, kind FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("catalog: backlinks: %w", err)
	}
	defer rows.Close()

	var out []LinkRow
	for rows.Next() {
		var l LinkRow
		var kind int
		if err := rows.Scan(&l.Source, &l.Target, &kind); err != nil {
			return nil, err
		}
		l.Kind = resolver.Kind(kind)
		out = append(out, l)
	}
	return out, rows.Err()
}

// Stubs returns every recorded stub page ordered by path.
func (db *DB) Stubs() ([]PageRow, error) {
	rows, err := db.conn.Query(`SELECT ` + pageColumns + ` FROM pages WHERE stub = 1 ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("catalog: stubs: %w", err)
	}
	defer rows.Close()
	return scanPages(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(s scanner) (*PageRow, error) {
	var p PageRow
	var tags string
	if err := s.Scan(&p.Path, &p.Name, &p.Title, &p.Source, &p.Checksum, &tags, &p.Stub, &p.Journal, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
		return nil, fmt.Errorf("catalog: decode tags of %s: %w", p.Path, err)
	}
	return &p, nil
}

func scanPages(rows *sql.Rows) ([]PageRow, error) {
	var out []PageRow
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}
