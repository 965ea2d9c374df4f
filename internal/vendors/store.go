// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vendors keeps the curated vendor directory in a local SQLite
// database and exposes it as a curated_vendor adapter.
package vendors

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// DefaultLimit caps the vendors returned by one search.
const DefaultLimit = 15

// Vendor is one curated service provider or maker.
type Vendor struct {
	ID          string            `yaml:"id" json:"id"`
	Name        string            `yaml:"name" json:"name"`
	Tagline     string            `yaml:"tagline,omitempty" json:"tagline,omitempty"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Category    string            `yaml:"category,omitempty" json:"category,omitempty"`
	Website     string            `yaml:"website,omitempty" json:"website,omitempty"`
	Email       string            `yaml:"email,omitempty" json:"email,omitempty"`
	Phone       string            `yaml:"phone,omitempty" json:"phone,omitempty"`
	ImageURL    string            `yaml:"image_url,omitempty" json:"image_url,omitempty"`
	PriceFrom   string            `yaml:"price_from,omitempty" json:"price_from,omitempty"`
	Currency    string            `yaml:"currency,omitempty" json:"currency,omitempty"`
	Rating      *float64          `yaml:"rating,omitempty" json:"rating,omitempty"`
	ReviewCount *int              `yaml:"review_count,omitempty" json:"review_count,omitempty"`
	Tags        []string          `yaml:"tags,omitempty" json:"tags,omitempty"`
	Features    []string          `yaml:"features,omitempty" json:"features,omitempty"`
	Attributes  map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// searchText is the lower-cased blob a query term is matched against.
func (v Vendor) searchText() string {
	parts := []string{v.Name, v.Tagline, v.Description, v.Category}
	parts = append(parts, v.Tags...)
	parts = append(parts, v.Features...)
	return strings.ToLower(strings.Join(parts, " "))
}

// Match is a vendor with the number of distinct query terms it matched.
type Match struct {
	Vendor
	Hits int
}

// Store manages the vendor directory database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the directory database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating directory %s", dir)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, eris.Wrap(err, "opening vendor database")
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "creating schema")
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS vendors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT,
			data TEXT NOT NULL,
			search_text TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vendors_category ON vendors(category)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return eris.Wrap(err, "executing schema statement")
		}
	}
	return nil
}

// Upsert inserts or replaces vendors in one transaction. Vendors without
// an ID get one derived from their name.
func (s *Store) Upsert(ctx context.Context, vendors []Vendor) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vendors (id, name, category, data, search_text)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			data = excluded.data,
			search_text = excluded.search_text,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`)
	if err != nil {
		return 0, eris.Wrap(err, "preparing upsert")
	}
	defer stmt.Close()

	n := 0
	for _, v := range vendors {
		if strings.TrimSpace(v.Name) == "" {
			return n, eris.New("vendor without a name")
		}
		if v.ID == "" {
			v.ID = Slug(v.Name)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return n, eris.Wrapf(err, "encoding vendor %s", v.ID)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, v.Name, strings.ToLower(v.Category), string(data), v.searchText()); err != nil {
			return n, eris.Wrapf(err, "upserting vendor %s", v.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "committing vendors")
	}
	return n, nil
}

// Delete removes a vendor by ID. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vendors WHERE id = ?`, id)
	if err != nil {
		return false, eris.Wrapf(err, "deleting vendor %s", id)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns vendors ordered by name, optionally restricted to a category.
func (s *Store) List(ctx context.Context, category string) ([]Vendor, error) {
	q := `SELECT data FROM vendors`
	var args []any
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, strings.ToLower(category))
	}
	q += ` ORDER BY name, id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "listing vendors")
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Search returns vendors matching at least one term, best match first:
// most distinct terms matched, then name. terms must be lower case.
func (s *Store) Search(ctx context.Context, terms []string, limit int) ([]Match, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT data, search_text FROM vendors WHERE `)
	for i, t := range terms {
		if i > 0 {
			qb.WriteString(` OR `)
		}
		qb.WriteString(`search_text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(t)+"%")
	}

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, eris.Wrap(err, "searching vendors")
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var data, text string
		if err := rows.Scan(&data, &text); err != nil {
			return nil, eris.Wrap(err, "scanning vendor")
		}
		var v Vendor
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			return nil, eris.Wrap(err, "decoding vendor")
		}
		hits := 0
		for _, t := range terms {
			if strings.Contains(text, t) {
				hits++
			}
		}
		out = append(out, Match{Vendor: v, Hits: hits})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored vendors.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM vendors`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "counting vendors")
	}
	return n, nil
}

func scanVendor(rows *sql.Rows) (Vendor, error) {
	var data string
	if err := rows.Scan(&data); err != nil {
		return Vendor{}, eris.Wrap(err, "scanning vendor")
	}
	var v Vendor
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return Vendor{}, eris.Wrap(err, "decoding vendor")
	}
	return v, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Slug derives a stable ID from a vendor name: lower case, runs of
// non-alphanumerics collapsed to a single hyphen.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
