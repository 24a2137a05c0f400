// Package gene defines the closed set of supported genes and their static
// per-gene configuration (genomic offset, reference sequence, catalog table).
package gene

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedGene is returned for gene identifiers outside the supported set.
var ErrUnsupportedGene = errors.New("unsupported gene")

// Gene is a supported gene symbol. The zero value is not a valid gene.
type Gene string

// Supported genes.
const (
	BRCA1 Gene = "BRCA1"
	TP53  Gene = "TP53"
	PTEN  Gene = "PTEN"
)

// All returns the supported genes in a stable order.
func All() []Gene {
	return []Gene{BRCA1, TP53, PTEN}
}

// Valid reports whether g is one of the supported genes.
func (g Gene) Valid() bool {
	switch g {
	case BRCA1, TP53, PTEN:
		return true
	}
	return false
}

func (g Gene) String() string { return string(g) }

// Parse converts a gene symbol into a Gene. Matching is exact: the symbol
// must be spelled as in the supported set (e.g. "BRCA1", not "brca1").
func Parse(s string) (Gene, error) {
	g := Gene(strings.TrimSpace(s))
	if !g.Valid() {
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedGene, s, joinGenes(All()))
	}
	return g, nil
}

func joinGenes(genes []Gene) string {
	names := make([]string, len(genes))
	for i, g := range genes {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}
