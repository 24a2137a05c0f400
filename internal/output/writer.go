package output

import (
	"fmt"
	"io"

	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/predict"
	"github.com/inodb/vibe-snv/internal/variant"
	"github.com/inodb/vibe-snv/internal/vcf"
)

// MatchWriter writes prediction results.
type MatchWriter interface {
	WriteHeader() error
	WriteResult(r *predict.Result) error
	Flush() error
}

// CallWriter writes substitution calls.
type CallWriter interface {
	WriteHeader() error
	Write(c variant.SubstitutionCall) error
	Flush() error
}

// MatchFormats lists the formats accepted by NewMatchWriter.
var MatchFormats = []string{"tab", "csv", "json"}

// CallFormats lists the formats accepted by NewCallWriter.
var CallFormats = []string{"tab", "vcf"}

// NewMatchWriter returns a writer for the named format.
func NewMatchWriter(format string, w io.Writer) (MatchWriter, error) {
	switch format {
	case "tab":
		return NewTabWriter(w), nil
	case "csv":
		return NewCSVWriter(w), nil
	case "json":
		return NewJSONWriter(w), nil
	}
	return nil, fmt.Errorf("unsupported output format %q (supported: %v)", format, MatchFormats)
}

// NewCallWriter returns a call writer for the named format. The gene config
// supplies the chromosome for VCF rows.
func NewCallWriter(format string, w io.Writer, cfg gene.Config) (CallWriter, error) {
	switch format {
	case "tab":
		return NewCallTabWriter(w), nil
	case "vcf":
		return vcf.NewWriter(w, cfg.Chrom, "GENE="+string(cfg.Gene)), nil
	}
	return nil, fmt.Errorf("unsupported call format %q (supported: %v)", format, CallFormats)
}
