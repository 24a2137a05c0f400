// Package align produces pairwise alignment records between a sample and a
// gene reference, either by running BLAST or with an in-process aligner.
package align

import "context"

// Gap is the gap character used in gapped alignment strings.
const Gap = '-'

// AlignmentRecord is one local alignment between a query (sample) sequence and
// a subject (reference) region, in BLAST tabular field order.
//
// Coordinates are 1-based and inclusive. SubjectStart > SubjectEnd marks an
// alignment against the reverse strand of the subject.
type AlignmentRecord struct {
	QueryID      string  `csv:"qseqid" json:"query_id"`
	SubjectID    string  `csv:"sseqid" json:"subject_id"`
	IdentityPct  float64 `csv:"pident" json:"identity_pct"`
	Length       int64   `csv:"length" json:"alignment_length"`
	Mismatches   int64   `csv:"mismatch" json:"mismatch_count"`
	GapOpens     int64   `csv:"gapopen" json:"gap_open_count"`
	QueryStart   int64   `csv:"qstart" json:"query_start"`
	QueryEnd     int64   `csv:"qend" json:"query_end"`
	SubjectStart int64   `csv:"sstart" json:"subject_start"`
	SubjectEnd   int64   `csv:"send" json:"subject_end"`
	EValue       float64 `csv:"evalue" json:"e_value"`
	BitScore     float64 `csv:"bitscore" json:"bit_score"`
	QuerySeq     string  `csv:"qseq" json:"query_seq"`
	SubjectSeq   string  `csv:"sseq" json:"subject_seq"`
}

// IsReverse reports whether the subject is traversed in decreasing coordinate order.
func (r *AlignmentRecord) IsReverse() bool {
	return r.SubjectEnd < r.SubjectStart
}

// Aligner aligns the sequences in a query FASTA against a reference FASTA.
type Aligner interface {
	Align(ctx context.Context, queryPath, referencePath string) ([]AlignmentRecord, error)
}

// TabularFields is the BLAST -outfmt 6 field list matching AlignmentRecord.
const TabularFields = "qseqid sseqid pident length mismatch gapopen qstart qend sstart send evalue bitscore qseq sseq"
