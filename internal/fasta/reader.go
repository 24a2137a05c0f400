// Package fasta reads nucleotide sequences from plain or gzipped FASTA files.
package fasta

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// Record is a single FASTA entry.
type Record struct {
	ID          string // first word of the header line
	Description string // remainder of the header line
	Seq         string // sequence with whitespace removed, upper-cased
}

// Reader reads FASTA records one at a time.
type Reader struct {
	scanner    *bufio.Scanner
	closers    []io.Closer
	lineNumber int
	pending    string // header line read ahead of the current record
	done       bool
}

// Open opens a FASTA file. Gzipped input is detected from its magic bytes.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("read fasta header: %w", err)
	}

	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		r := NewReader(gz)
		r.closers = []io.Closer{gz, f}
		return r, nil
	}

	r := NewReader(br)
	r.closers = []io.Closer{f}
	return r, nil
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	// Increase buffer size for unwrapped sequences
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)
	return &Reader{scanner: scanner}
}

// Next returns the next record, or nil, nil when there are no more records.
func (r *Reader) Next() (*Record, error) {
	if r.done {
		return nil, nil
	}

	header := r.pending
	r.pending = ""
	var seq strings.Builder

	for r.scanner.Scan() {
		r.lineNumber++
		line := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.HasPrefix(line, ">") {
			if header == "" {
				header = line
				continue
			}
			r.pending = line
			return newRecord(header, seq.String()), nil
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, ";") {
			continue
		}
		if header == "" {
			return nil, fmt.Errorf("fasta line %d: sequence data before first header", r.lineNumber)
		}
		seq.WriteString(strings.Join(strings.Fields(trimmed), ""))
	}
	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan fasta: %w", err)
	}

	r.done = true
	if header == "" {
		return nil, nil
	}
	return newRecord(header, seq.String()), nil
}

// LineNumber returns the number of lines consumed so far.
func (r *Reader) LineNumber() int {
	return r.lineNumber
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newRecord(header, seq string) *Record {
	header = strings.TrimSpace(strings.TrimPrefix(header, ">"))
	id, desc, _ := strings.Cut(header, " ")
	return &Record{
		ID:          id,
		Description: strings.TrimSpace(desc),
		Seq:         string(bytes.ToUpper([]byte(seq))),
	}
}

// ReadAll reads every record from path.
func ReadAll(path string) ([]Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var records []Record
	for {
		rec, err := r.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, *rec)
	}
}
