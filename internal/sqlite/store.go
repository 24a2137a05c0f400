// Package sqlite reads the legacy ClinVar catalog: a SQLite file holding one
// table per gene (brca1_variants, tp53_variants, ...) with ClinVar
// variant_summary column names.
package sqlite

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
)

// recordBuilder selects legacy columns under the names of
// catalog.PathogenicVariantRecord's db tags.
var recordBuilder = squirrel.Select(
	"CAST(Start AS INTEGER) AS position",
	"coalesce(ReferenceAllele, '') AS ref_base",
	"coalesce(AlternateAllele, '') AS alt_base",
	"coalesce(ClinicalSignificance, '') AS clinical_significance",
	"coalesce(PhenotypeList, '') AS disease",
	"coalesce(Type, '') AS variant_type",
)

// Store is a read-only view over a legacy catalog file.
type Store struct {
	db     *sqlx.DB
	path   string
	logger *zap.Logger
}

// Open connects to the SQLite catalog at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog %s: %w", path, err)
	}
	return &Store{db: db, path: path, logger: zap.NewNop()}, nil
}

// NewFromDB wraps an existing connection.
func NewFromDB(db *sqlx.DB) *Store {
	return &Store{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger used for query diagnostics.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// HasTable reports whether the named table exists.
func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return false, fmt.Errorf("look up table %s: %w", table, err)
	}
	return n > 0, nil
}

// PathogenicSNVs implements catalog.Catalog. instr is used rather than LIKE
// because SQLite's LIKE ignores ASCII case.
func (s *Store) PathogenicSNVs(ctx context.Context, g gene.Gene, table string) ([]catalog.PathogenicVariantRecord, error) {
	q := recordBuilder.
		Where(squirrel.Expr("instr(ClinicalSignificance, ?) > 0", catalog.PathogenicMarker)).
		Where(squirrel.Eq{"Type": catalog.VariantTypeSNV})
	return s.selectRecords(ctx, g, table, q)
}

// ReadAll returns every row of the gene's table with a numeric start.
func (s *Store) ReadAll(ctx context.Context, g gene.Gene, table string) ([]catalog.PathogenicVariantRecord, error) {
	return s.selectRecords(ctx, g, table, recordBuilder)
}

func (s *Store) selectRecords(ctx context.Context, g gene.Gene, table string, q squirrel.SelectBuilder) ([]catalog.PathogenicVariantRecord, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("%w: %q", gene.ErrUnsupportedGene, string(g))
	}
	// Table names cannot be bound as parameters, so only registry-validated
	// names reach the query text.
	if err := (gene.Config{Gene: g, Table: table}).Validate(); err != nil {
		return nil, err
	}
	ok, err := s.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("table %s not found in %s", table, s.path)
	}

	query, args, err := q.From(table).
		Where("Start GLOB '[0-9]*'").
		OrderBy("position", "ref_base", "alt_base").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	s.logger.Debug("sqlite catalog query", zap.String("sql", query), zap.Any("args", args))

	var out []catalog.PathogenicVariantRecord
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return out, nil
}

var _ catalog.Catalog = (*Store)(nil)
