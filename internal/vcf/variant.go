// Package vcf reads and writes single-nucleotide variant calls in VCF.
package vcf

import (
	"strings"

	"github.com/inodb/vibe-snv/internal/variant"
)

// Variant is one VCF data row after multi-allelic splitting.
type Variant struct {
	Chrom  string // Chromosome name (e.g., "17", "chr17")
	Pos    int64  // 1-based genomic position
	ID     string
	Ref    string
	Alt    string // single allele after splitting
	Filter string
	Info   string // raw INFO column
}

// IsSNV reports whether both alleles are a single base from ACGT.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1 && isBase(v.Ref[0]) && isBase(v.Alt[0])
}

// Call converts the variant to a substitution call with upper-cased bases.
func (v *Variant) Call() variant.SubstitutionCall {
	return variant.SubstitutionCall{
		Position: v.Pos,
		Ref:      strings.ToUpper(v.Ref),
		Alt:      strings.ToUpper(v.Alt),
	}
}

func isBase(b byte) bool {
	switch b {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't':
		return true
	}
	return false
}

// SplitMultiAllelic splits a comma-separated ALT into one variant per allele.
func SplitMultiAllelic(v *Variant) []*Variant {
	alts := strings.Split(v.Alt, ",")
	if len(alts) == 1 {
		return []*Variant{v}
	}

	variants := make([]*Variant, len(alts))
	for i, alt := range alts {
		cp := *v
		cp.Alt = alt
		variants[i] = &cp
	}
	return variants
}
