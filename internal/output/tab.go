// Package output provides result formatters for matched variants and
// substitution calls.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-snv/internal/predict"
	"github.com/inodb/vibe-snv/internal/variant"
)

// CSVColumns is the CSV match column order.
var CSVColumns = []string{
	"position",
	"ref_base",
	"alt_base",
	"clinical_significance",
	"disease",
}

// MatchColumns is the tab match column order: the CSV columns prefixed with
// the sample and gene.
var MatchColumns = append([]string{"sample", "gene"}, CSVColumns...)

// TabWriter writes matched variants in tab-delimited format, one row per match.
type TabWriter struct {
	w *bufio.Writer
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString("#" + strings.Join(MatchColumns, "\t") + "\n")
	return err
}

// WriteResult writes the matches of one prediction.
func (tw *TabWriter) WriteResult(r *predict.Result) error {
	sample := dash(r.Sample)
	for _, m := range r.Matches {
		values := []string{
			sample,
			string(r.Gene),
			strconv.FormatInt(m.Position, 10),
			m.Ref,
			m.Alt,
			dash(m.ClinicalSignificance),
			dash(m.Disease),
		}
		if _, err := tw.w.WriteString(strings.Join(values, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// CallTabWriter writes substitution calls in tab-delimited format.
type CallTabWriter struct {
	w *bufio.Writer
}

// NewCallTabWriter creates a new tab-delimited call writer.
func NewCallTabWriter(w io.Writer) *CallTabWriter {
	return &CallTabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (cw *CallTabWriter) WriteHeader() error {
	_, err := cw.w.WriteString("#position\tref_base\talt_base\n")
	return err
}

// Write writes a single call.
func (cw *CallTabWriter) Write(c variant.SubstitutionCall) error {
	_, err := cw.w.WriteString(strconv.FormatInt(c.Position, 10) + "\t" + c.Ref + "\t" + c.Alt + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CallTabWriter) Flush() error {
	return cw.w.Flush()
}

func dash(s string) string {
	s = strings.NewReplacer("\t", " ", "\n", " ").Replace(s)
	if s == "" {
		return "-"
	}
	return s
}
