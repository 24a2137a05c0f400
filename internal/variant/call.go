// Package variant calls single-nucleotide substitutions from pairwise
// alignments in genomic coordinates.
package variant

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-snv/internal/align"
)

// ErrMalformedAlignment is matched by every *MalformedAlignmentError.
var ErrMalformedAlignment = errors.New("malformed alignment")

// MalformedAlignmentError reports an alignment record that cannot be walked.
type MalformedAlignmentError struct {
	Index      int // position of the record in the input batch
	QueryID    string
	SubjectID  string
	QueryLen   int
	SubjectLen int
	Reason     string
}

func (e *MalformedAlignmentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed alignment record %d (%s vs %s): %s",
			e.Index, e.QueryID, e.SubjectID, e.Reason)
	}
	return fmt.Sprintf("malformed alignment record %d (%s vs %s): query length %d != subject length %d",
		e.Index, e.QueryID, e.SubjectID, e.QueryLen, e.SubjectLen)
}

// Is lets errors.Is match ErrMalformedAlignment.
func (e *MalformedAlignmentError) Is(target error) bool {
	return target == ErrMalformedAlignment
}

// SubstitutionCall is a single-base difference between sample and reference.
type SubstitutionCall struct {
	Position int64  `json:"position"`
	Ref      string `json:"ref_base"` // reference (subject) base, upper case
	Alt      string `json:"alt_base"` // sample (query) base, upper case
}

// Key returns the join key "pos:ref>alt".
func (c SubstitutionCall) Key() string {
	return fmt.Sprintf("%d:%s>%s", c.Position, c.Ref, c.Alt)
}

// GapPolicy selects which one-sided gap advances the reference coordinate.
type GapPolicy int

const (
	// SubjectGapAdvances advances the coordinate when the reference has a
	// gap opposite a query base, and holds it when the query has a gap.
	SubjectGapAdvances GapPolicy = iota
	// QueryGapAdvances advances the coordinate when a reference base is
	// opposite a query gap, and holds it on a reference gap.
	QueryGapAdvances
)

// ParseGapPolicy parses the config names of the gap policies.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch s {
	case "", "subject-gap-advances":
		return SubjectGapAdvances, nil
	case "query-gap-advances":
		return QueryGapAdvances, nil
	}
	return 0, fmt.Errorf("unknown gap policy %q (want subject-gap-advances or query-gap-advances)", s)
}

func (p GapPolicy) String() string {
	if p == QueryGapAdvances {
		return "query-gap-advances"
	}
	return "subject-gap-advances"
}

// Anchor selects the reference coordinate the walk starts from.
type Anchor int

const (
	// AnchorLow starts at min(subject_start, subject_end) for both strands.
	AnchorLow Anchor = iota
	// AnchorSubjectStart starts at subject_start, so a reverse-strand walk
	// runs from the high end of the aligned region down to the low end.
	AnchorSubjectStart
)

// ParseAnchor parses the config names of the anchors.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "", "low":
		return AnchorLow, nil
	case "subject-start":
		return AnchorSubjectStart, nil
	}
	return 0, fmt.Errorf("unknown walk anchor %q (want low or subject-start)", s)
}

func (a Anchor) String() string {
	if a == AnchorSubjectStart {
		return "subject-start"
	}
	return "low"
}

type options struct {
	gapPolicy GapPolicy
	anchor    Anchor
}

// Option configures Call.
type Option func(*options)

// WithGapPolicy sets the gap policy. The default is SubjectGapAdvances.
func WithGapPolicy(p GapPolicy) Option {
	return func(o *options) { o.gapPolicy = p }
}

// WithAnchor sets the walk anchor. The default is AnchorLow.
func WithAnchor(a Anchor) Option {
	return func(o *options) { o.anchor = a }
}

// Call walks every record and returns one SubstitutionCall per aligned pair of
// non-gap bases that differ case-insensitively, at reference-local coordinate
// plus offset. Calls are returned in record order, then walk order, without
// deduplication. Every record is validated before any is walked, so a
// malformed record rejects the whole batch.
func Call(records []align.AlignmentRecord, offset int64, opts ...Option) ([]SubstitutionCall, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	for i := range records {
		if err := validate(i, &records[i]); err != nil {
			return nil, err
		}
	}

	var calls []SubstitutionCall
	for i := range records {
		calls = walk(&records[i], offset, o, calls)
	}
	return calls, nil
}

func validate(i int, r *align.AlignmentRecord) error {
	if len(r.QuerySeq) != len(r.SubjectSeq) {
		return &MalformedAlignmentError{
			Index:      i,
			QueryID:    r.QueryID,
			SubjectID:  r.SubjectID,
			QueryLen:   len(r.QuerySeq),
			SubjectLen: len(r.SubjectSeq),
		}
	}
	if r.SubjectStart < 1 || r.SubjectEnd < 1 {
		return &MalformedAlignmentError{
			Index:     i,
			QueryID:   r.QueryID,
			SubjectID: r.SubjectID,
			Reason:    fmt.Sprintf("subject coordinates %d..%d are not 1-based", r.SubjectStart, r.SubjectEnd),
		}
	}
	return nil
}

// walk appends the calls for one record to calls.
func walk(r *align.AlignmentRecord, offset int64, o options, calls []SubstitutionCall) []SubstitutionCall {
	pos := min(r.SubjectStart, r.SubjectEnd)
	if o.anchor == AnchorSubjectStart {
		pos = r.SubjectStart
	}
	step := int64(1)
	if r.SubjectEnd < r.SubjectStart {
		step = -1
	}

	q, s := r.QuerySeq, r.SubjectSeq
	for i := 0; i < len(q); i++ {
		qb, sb := upper(q[i]), upper(s[i])
		qGap, sGap := qb == align.Gap, sb == align.Gap

		switch {
		case !qGap && !sGap:
			if qb != sb {
				calls = append(calls, SubstitutionCall{
					Position: pos + offset,
					Ref:      string(sb),
					Alt:      string(qb),
				})
			}
			pos += step
		case sGap && !qGap:
			if o.gapPolicy == SubjectGapAdvances {
				pos += step
			}
		case qGap && !sGap:
			if o.gapPolicy == QueryGapAdvances {
				pos += step
			}
		}
	}
	return calls
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
