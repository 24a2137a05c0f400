package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
)

// InsertVariants appends catalog rows for a gene using the Appender API.
// Bases are stored upper-cased.
func (s *Store) InsertVariants(ctx context.Context, g gene.Gene, assembly string, records []catalog.PathogenicVariantRecord) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", gene.ErrUnsupportedGene, string(g))
	}
	if len(records) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "clinvar_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range records {
		if err := appender.AppendRow(
			string(g), r.Position,
			strings.ToUpper(r.Ref), strings.ToUpper(r.Alt),
			r.ClinicalSignificance, r.Disease, r.VariantType, assembly,
		); err != nil {
			return fmt.Errorf("append catalog row: %w", err)
		}
	}

	return appender.Flush()
}

// ReplaceVariants swaps a gene's rows for an assembly with records in one
// transaction, so repeated imports of the same source do not duplicate rows.
func (s *Store) ReplaceVariants(ctx context.Context, g gene.Gene, assembly string, records []catalog.PathogenicVariantRecord) error {
	if !g.Valid() {
		return fmt.Errorf("%w: %q", gene.ErrUnsupportedGene, string(g))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM clinvar_variants WHERE gene = ? AND assembly = ?`,
		string(g), assembly); err != nil {
		return fmt.Errorf("clear %s rows: %w", g, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clinvar_variants VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			string(g), r.Position,
			strings.ToUpper(r.Ref), strings.ToUpper(r.Alt),
			r.ClinicalSignificance, r.Disease, r.VariantType, assembly,
		); err != nil {
			return fmt.Errorf("insert catalog row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// PathogenicSNVs implements catalog.Catalog. Partitions are keyed by gene
// symbol, so the registry's table name is not consulted.
func (s *Store) PathogenicSNVs(ctx context.Context, g gene.Gene, _ string) ([]catalog.PathogenicVariantRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		position, coalesce(ref_base, ''), coalesce(alt_base, ''),
		coalesce(clinical_significance, ''), coalesce(disease, ''), coalesce(variant_type, '')
		FROM clinvar_variants
		WHERE gene = ? AND contains(clinical_significance, ?) AND variant_type = ?
		ORDER BY position, ref_base, alt_base, clinical_significance, disease`,
		string(g), catalog.PathogenicMarker, catalog.VariantTypeSNV)
	if err != nil {
		return nil, fmt.Errorf("query pathogenic variants: %w", err)
	}
	defer rows.Close()

	var out []catalog.PathogenicVariantRecord
	for rows.Next() {
		var r catalog.PathogenicVariantRecord
		if err := rows.Scan(&r.Position, &r.Ref, &r.Alt, &r.ClinicalSignificance, &r.Disease, &r.VariantType); err != nil {
			return nil, fmt.Errorf("scan pathogenic variant: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pathogenic variants: %w", err)
	}
	return out, nil
}

// GeneStats summarizes one gene's partition.
type GeneStats struct {
	Gene           gene.Gene
	Rows           int64
	PathogenicSNVs int64
}

// Stats returns row counts per gene, in gene order.
func (s *Store) Stats(ctx context.Context) ([]GeneStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT gene, count(*),
		count(*) FILTER (WHERE contains(clinical_significance, ?) AND variant_type = ?)
		FROM clinvar_variants
		GROUP BY gene
		ORDER BY gene`, catalog.PathogenicMarker, catalog.VariantTypeSNV)
	if err != nil {
		return nil, fmt.Errorf("query catalog stats: %w", err)
	}
	defer rows.Close()

	var out []GeneStats
	for rows.Next() {
		var st GeneStats
		var g string
		if err := rows.Scan(&g, &st.Rows, &st.PathogenicSNVs); err != nil {
			return nil, fmt.Errorf("scan catalog stats: %w", err)
		}
		st.Gene = gene.Gene(g)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog stats: %w", err)
	}
	return out, nil
}

// Count returns the number of rows in the catalog.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM clinvar_variants").Scan(&count); err != nil {
		return 0, fmt.Errorf("count catalog rows: %w", err)
	}
	return count, nil
}

var _ catalog.Catalog = (*Store)(nil)
