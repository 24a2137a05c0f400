// Package catalog joins substitution calls against a catalog of known
// pathogenic variants.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/inodb/vibe-snv/internal/gene"
)

// ErrCatalogUnavailable wraps any failure to query the catalog.
var ErrCatalogUnavailable = errors.New("catalog unavailable")

// PathogenicMarker is the case-sensitive substring that makes a clinical
// significance eligible for matching.
const PathogenicMarker = "Pathogenic"

// VariantTypeSNV is the ClinVar variant type of a single-base substitution.
const VariantTypeSNV = "single nucleotide variant"

// PathogenicVariantRecord is one catalog row for a gene.
type PathogenicVariantRecord struct {
	Position             int64  `db:"position" json:"position"`
	Ref                  string `db:"ref_base" json:"ref_base"`
	Alt                  string `db:"alt_base" json:"alt_base"`
	ClinicalSignificance string `db:"clinical_significance" json:"clinical_significance"`
	Disease              string `db:"disease" json:"disease"`
	VariantType          string `db:"variant_type" json:"variant_type"`
}

// IsPathogenic reports whether the clinical significance contains
// PathogenicMarker. The match is case-sensitive, so "Likely pathogenic" on its
// own does not qualify.
func (r *PathogenicVariantRecord) IsPathogenic() bool {
	return strings.Contains(r.ClinicalSignificance, PathogenicMarker)
}

// IsSNV reports whether the row is a single-nucleotide substitution.
func (r *PathogenicVariantRecord) IsSNV() bool {
	return r.VariantType == VariantTypeSNV
}

// MatchedVariant is a call found in the catalog.
type MatchedVariant struct {
	Position             int64  `csv:"position" json:"position"`
	Ref                  string `csv:"ref_base" json:"ref_base"`
	Alt                  string `csv:"alt_base" json:"alt_base"`
	ClinicalSignificance string `csv:"clinical_significance" json:"clinical_significance"`
	Disease              string `csv:"disease" json:"disease"`
}

// Catalog is a read-only store of known variants, partitioned per gene.
type Catalog interface {
	// PathogenicSNVs returns the rows of the gene's partition whose clinical
	// significance contains PathogenicMarker and whose variant type is
	// VariantTypeSNV. table is the validated partition name from the gene
	// registry.
	PathogenicSNVs(ctx context.Context, g gene.Gene, table string) ([]PathogenicVariantRecord, error)
}

// unavailable wraps a backend error so that errors.Is(err, ErrCatalogUnavailable) holds
// while the backend error stays reachable through errors.Unwrap.
type unavailable struct {
	gene gene.Gene
	err  error
}

func (e *unavailable) Error() string {
	return "catalog unavailable for " + string(e.gene) + ": " + e.err.Error()
}

func (e *unavailable) Unwrap() []error { return []error{ErrCatalogUnavailable, e.err} }
