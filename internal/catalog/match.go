package catalog

import (
	"context"
	"strings"

	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/variant"
)

type matchKey struct {
	pos      int64
	ref, alt string
}

// Match returns the inner join of calls with the gene's pathogenic SNVs on
// (position, ref, alt), bases compared upper-cased. Output follows call order;
// a call matching several catalog rows yields one entry per row, in catalog
// order. An empty call list returns nil without querying the catalog.
func Match(ctx context.Context, calls []variant.SubstitutionCall, g gene.Gene, table string, cat Catalog) ([]MatchedVariant, error) {
	if !g.Valid() {
		return nil, gene.ErrUnsupportedGene
	}
	if len(calls) == 0 {
		return nil, nil
	}

	rows, err := cat.PathogenicSNVs(ctx, g, table)
	if err != nil {
		return nil, &unavailable{gene: g, err: err}
	}

	index := make(map[matchKey][]int, len(rows))
	for i := range rows {
		r := &rows[i]
		// Only pathogenic SNV rows take part in the join.
		if !r.IsPathogenic() || !r.IsSNV() {
			continue
		}
		k := matchKey{r.Position, strings.ToUpper(r.Ref), strings.ToUpper(r.Alt)}
		index[k] = append(index[k], i)
	}

	var matched []MatchedVariant
	for _, c := range calls {
		k := matchKey{c.Position, strings.ToUpper(c.Ref), strings.ToUpper(c.Alt)}
		for _, i := range index[k] {
			r := &rows[i]
			matched = append(matched, MatchedVariant{
				Position:             c.Position,
				Ref:                  k.ref,
				Alt:                  k.alt,
				ClinicalSignificance: r.ClinicalSignificance,
				Disease:              r.Disease,
			})
		}
	}
	return matched, nil
}

// Diseases returns the non-empty disease names of matches, in match order.
func Diseases(matches []MatchedVariant) []string {
	var out []string
	for _, m := range matches {
		if d := strings.TrimSpace(m.Disease); d != "" {
			out = append(out, d)
		}
	}
	return out
}
