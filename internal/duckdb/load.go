package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/inodb/vibe-snv/internal/gene"
)

// LoadResult describes the outcome of LoadClinVar.
type LoadResult struct {
	Rows    int64
	Skipped bool // the same file was already loaded for this assembly
}

// LoadClinVar bulk-loads ClinVar's tab-separated variant_summary.txt (plain
// or gzipped) for the given genes and assembly. The columns used are:
//
//	Type  GeneSymbol  ClinicalSignificance  PhenotypeList  Assembly  Start  ReferenceAllele  AlternateAllele
//
// When the file also has PositionVCF, ReferenceAlleleVCF and AlternateAlleleVCF,
// those are used for rows whose ReferenceAllele or AlternateAllele is "na" or
// empty, as in current ClinVar releases.
//
// Rows listing several genes in GeneSymbol (separated by ';') are loaded
// once per listed gene. Rows previously stored for the selected genes and
// assembly are replaced; other genes are left alone.
// Unless force is set, a file whose fingerprint matches the last load is
// skipped.
func (s *Store) LoadClinVar(ctx context.Context, path string, genes []gene.Gene, assembly string, force bool) (LoadResult, error) {
	if len(genes) == 0 {
		return LoadResult{}, fmt.Errorf("load clinvar: no genes selected")
	}
	for _, g := range genes {
		if !g.Valid() {
			return LoadResult{}, fmt.Errorf("load clinvar: %w: %q", gene.ErrUnsupportedGene, string(g))
		}
	}

	fp, err := StatFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("stat clinvar file: %w", err)
	}
	if !force {
		loaded, err := s.sourceLoaded(ctx, fp, assembly)
		if err != nil {
			return LoadResult{}, err
		}
		if loaded {
			return LoadResult{Skipped: true}, nil
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LoadResult{}, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	source := fmt.Sprintf(`read_csv('%s', delim='\t', header=true, all_varchar=true)`, sqlQuote(path))
	cols, err := sourceColumns(ctx, tx, source)
	if err != nil {
		return LoadResult{}, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(genes)), ", ")
	geneArgs := make([]any, 0, len(genes))
	for _, g := range genes {
		geneArgs = append(geneArgs, string(g))
	}

	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM clinvar_variants WHERE assembly = ? AND gene IN (%s)`, placeholders),
		append([]any{assembly}, geneArgs...)...); err != nil {
		return LoadResult{}, fmt.Errorf("clear previous load: %w", err)
	}

	pos, ref, alt := alleleColumns(cols)
	query := fmt.Sprintf(`INSERT INTO clinvar_variants
		SELECT gene, position, upper(coalesce(ref_base, '')), upper(coalesce(alt_base, '')),
			"ClinicalSignificance", "PhenotypeList", "Type", "Assembly"
		FROM (
			SELECT unnest(string_split("GeneSymbol", ';')) AS gene,
				%s AS position, %s AS ref_base, %s AS alt_base,
				"ClinicalSignificance", "PhenotypeList", "Type", "Assembly"
			FROM %s
		)
		WHERE gene IN (%s) AND "Assembly" = ? AND position IS NOT NULL`,
		pos, ref, alt, source, placeholders)

	res, err := tx.ExecContext(ctx, query, append(geneArgs, assembly)...)
	if err != nil {
		return LoadResult{}, fmt.Errorf("loading ClinVar data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return LoadResult{}, fmt.Errorf("count loaded rows: %w", err)
	}

	if err := recordSource(ctx, tx, fp, assembly, n); err != nil {
		return LoadResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return LoadResult{}, fmt.Errorf("commit load: %w", err)
	}
	return LoadResult{Rows: n}, nil
}

// sourceColumns returns the header names of a read_csv source.
func sourceColumns(ctx context.Context, tx *sql.Tx, source string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+source+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("read clinvar header: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read clinvar header: %w", err)
	}
	cols := make(map[string]bool, len(names))
	for _, n := range names {
		cols[n] = true
	}
	return cols, nil
}

// alleleColumns returns the position, reference and alternate expressions
// for the columns present in a variant_summary file.
func alleleColumns(cols map[string]bool) (pos, ref, alt string) {
	pos = `TRY_CAST("Start" AS BIGINT)`
	ref = `"ReferenceAllele"`
	alt = `"AlternateAllele"`
	if !cols["PositionVCF"] || !cols["ReferenceAlleleVCF"] || !cols["AlternateAlleleVCF"] {
		return pos, ref, alt
	}

	missing := `(coalesce(lower("ReferenceAllele"), 'na') = 'na' OR coalesce(lower("AlternateAllele"), 'na') = 'na')`
	return fmt.Sprintf(`CASE WHEN %s THEN coalesce(TRY_CAST("PositionVCF" AS BIGINT), %s) ELSE %s END`, missing, pos, pos),
		fmt.Sprintf(`CASE WHEN %s THEN "ReferenceAlleleVCF" ELSE %s END`, missing, ref),
		fmt.Sprintf(`CASE WHEN %s THEN "AlternateAlleleVCF" ELSE %s END`, missing, alt)
}

// sqlQuote escapes a string for use inside a single-quoted SQL literal.
func sqlQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
