package output

import (
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/inodb/vibe-snv/internal/predict"
)

// CSVWriter writes matched variants as comma-separated values with a header.
// Rows carry only the CSVColumns, so results of several samples are not
// distinguished; use the tab or JSON format for batches.
type CSVWriter struct {
	cw *csv.Writer
}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{cw: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.cw.Write(CSVColumns)
}

// WriteResult writes the matches of one prediction.
func (w *CSVWriter) WriteResult(r *predict.Result) error {
	if len(r.Matches) == 0 {
		return nil
	}
	return gocsv.MarshalCSVWithoutHeaders(r.Matches, gocsv.NewSafeCSVWriter(w.cw))
}

// Flush flushes any buffered data to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}
