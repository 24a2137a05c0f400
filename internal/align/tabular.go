package align

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

const tabularColumns = 14

// ReadTabular decodes BLAST tabular output (-outfmt "6 <TabularFields>").
// Lines starting with '#' (as written by -outfmt 7) are skipped. An empty
// input yields no records and no error.
func ReadTabular(r io.Reader) ([]AlignmentRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.FieldsPerRecord = tabularColumns
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read alignment table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i, row := range rows {
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
		rows[i] = row
	}

	var records []AlignmentRecord
	if err := gocsv.UnmarshalCSVWithoutHeaders(&rowReader{rows: rows}, &records); err != nil {
		return nil, fmt.Errorf("decode alignment table: %w", err)
	}
	return records, nil
}

// WriteTabular encodes records in the same 14-column layout ReadTabular accepts.
func WriteTabular(w io.Writer, records []AlignmentRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := gocsv.MarshalCSVWithoutHeaders(records, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("encode alignment table: %w", err)
	}
	return nil
}

// rowReader feeds already-split rows to gocsv.
type rowReader struct {
	rows [][]string
	next int
}

func (r *rowReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *rowReader) ReadAll() ([][]string, error) {
	rest := r.rows[r.next:]
	r.next = len(r.rows)
	return rest, nil
}
