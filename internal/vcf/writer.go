package vcf

import (
	"bufio"
	"fmt"
	"io"

	"github.com/inodb/vibe-snv/internal/variant"
)

// Writer writes substitution calls as a sites-only VCF.
type Writer struct {
	w     *bufio.Writer
	chrom string
	info  string
}

// NewWriter creates a writer emitting rows on chrom. info is written to every
// row's INFO column ("." when empty).
func NewWriter(w io.Writer, chrom, info string) *Writer {
	if info == "" {
		info = "."
	}
	return &Writer{w: bufio.NewWriter(w), chrom: chrom, info: info}
}

// WriteHeader writes the meta lines and the #CHROM line.
func (w *Writer) WriteHeader() error {
	_, err := fmt.Fprintf(w.w, "##fileformat=VCFv4.2\n##source=vibe-snv\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n")
	return err
}

// Write writes one call.
func (w *Writer) Write(c variant.SubstitutionCall) error {
	_, err := fmt.Fprintf(w.w, "%s\t%d\t.\t%s\t%s\t.\tPASS\t%s\n", w.chrom, c.Position, c.Ref, c.Alt, w.info)
	return err
}

// Flush flushes buffered output.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
