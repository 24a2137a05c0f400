// Package duckdb stores the ClinVar variant catalog in DuckDB. Rows are
// partitioned by gene symbol and loaded in bulk from ClinVar's
// variant_summary.txt with DuckDB's read_csv.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding the variant catalog.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS clinvar_variants (
		gene VARCHAR,
		position BIGINT,
		ref_base VARCHAR,
		alt_base VARCHAR,
		clinical_significance VARCHAR,
		disease VARCHAR,
		variant_type VARCHAR,
		assembly VARCHAR
	)`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_clinvar_gene_pos
		ON clinvar_variants (gene, position)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS catalog_sources (
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		assembly VARCHAR,
		row_count BIGINT,
		loaded_at TIMESTAMP
	)`)
	return err
}
