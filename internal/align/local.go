package align

import (
	"context"
	"fmt"
	"strings"

	"github.com/biogo/biogo/align"
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/fasta"
)

// Scoring for the local aligner, indexed by alphabet.DNAgapped ("-acgt").
const (
	matchScore    = 2
	mismatchScore = -3
	gapScore      = -5
)

// DefaultMinScore is the lowest raw Smith-Waterman score reported.
const DefaultMinScore = 20

var swMatrix = align.SW{
	{0, gapScore, gapScore, gapScore, gapScore},
	{gapScore, matchScore, mismatchScore, mismatchScore, mismatchScore},
	{gapScore, mismatchScore, matchScore, mismatchScore, mismatchScore},
	{gapScore, mismatchScore, mismatchScore, matchScore, mismatchScore},
	{gapScore, mismatchScore, mismatchScore, mismatchScore, matchScore},
}

// LocalAligner aligns each query record against each reference record with
// Smith-Waterman on both strands of the query, reporting the better strand.
// It needs no external tools.
type LocalAligner struct {
	MinScore int
	logger   *zap.Logger
}

// NewLocalAligner creates a LocalAligner with DefaultMinScore.
func NewLocalAligner() *LocalAligner {
	return &LocalAligner{MinScore: DefaultMinScore, logger: zap.NewNop()}
}

// SetLogger sets the logger for debug messages.
func (a *LocalAligner) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Align implements Aligner.
func (a *LocalAligner) Align(ctx context.Context, queryPath, referencePath string) ([]AlignmentRecord, error) {
	queries, err := fasta.ReadAll(queryPath)
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	refs, err := fasta.ReadAll(referencePath)
	if err != nil {
		return nil, fmt.Errorf("read reference: %w", err)
	}
	return a.AlignRecords(ctx, queries, refs)
}

// AlignRecords aligns in-memory sequences. Output order is query-major.
func (a *LocalAligner) AlignRecords(ctx context.Context, queries, refs []fasta.Record) ([]AlignmentRecord, error) {
	var records []AlignmentRecord
	for _, q := range queries {
		if err := checkResidues(q); err != nil {
			return nil, err
		}
		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := checkResidues(ref); err != nil {
				return nil, err
			}
			rec, ok, err := a.alignPair(q, ref)
			if err != nil {
				return nil, fmt.Errorf("align %s to %s: %w", q.ID, ref.ID, err)
			}
			if !ok {
				a.logger.Debug("no local alignment above threshold",
					zap.String("query", q.ID), zap.String("subject", ref.ID))
				continue
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func (a *LocalAligner) alignPair(q, ref fasta.Record) (AlignmentRecord, bool, error) {
	fwd, fwdScore, err := smithWaterman(q.Seq, ref.Seq)
	if err != nil {
		return AlignmentRecord{}, false, err
	}
	rc := ReverseComplement(q.Seq)
	rev, revScore, err := smithWaterman(rc, ref.Seq)
	if err != nil {
		return AlignmentRecord{}, false, err
	}

	best, score, reverse := fwd, fwdScore, false
	if revScore > fwdScore {
		best, score, reverse = rev, revScore, true
	}
	if best == nil || score < a.MinScore {
		return AlignmentRecord{}, false, nil
	}

	rec := AlignmentRecord{
		QueryID:   q.ID,
		SubjectID: ref.ID,
		BitScore:  float64(score),
	}
	if !reverse {
		rec.QueryStart, rec.QueryEnd = best.qStart+1, best.qEnd
		rec.SubjectStart, rec.SubjectEnd = best.rStart+1, best.rEnd
		rec.QuerySeq, rec.SubjectSeq = best.qAln, best.rAln
	} else {
		// Report in query orientation the way BLAST does for minus-strand
		// hits: subject coordinates run high to low.
		n := int64(len(q.Seq))
		rec.QueryStart, rec.QueryEnd = n-best.qEnd+1, n-best.qStart
		rec.SubjectStart, rec.SubjectEnd = best.rEnd, best.rStart+1
		rec.QuerySeq = ReverseComplement(best.qAln)
		rec.SubjectSeq = ReverseComplement(best.rAln)
	}
	summarize(&rec)
	return rec, true, nil
}

// localHit holds 0-based half-open coordinates and the gapped strings.
type localHit struct {
	rStart, rEnd int64
	qStart, qEnd int64
	rAln, qAln   string
}

func smithWaterman(query, ref string) (*localHit, int, error) {
	if query == "" || ref == "" {
		return nil, 0, nil
	}
	rs := &linear.Seq{Seq: alphabet.BytesToLetters([]byte(ref))}
	rs.Alpha = alphabet.DNAgapped
	qs := &linear.Seq{Seq: alphabet.BytesToLetters([]byte(query))}
	qs.Alpha = alphabet.DNAgapped

	pairs, err := swMatrix.Align(rs, qs)
	if err != nil {
		return nil, 0, err
	}
	if len(pairs) == 0 {
		return nil, 0, nil
	}

	first := pairs[0].Features()
	last := pairs[len(pairs)-1].Features()
	formatted := align.Format(rs, qs, pairs, '-')

	hit := &localHit{
		rStart: int64(first[0].Start()),
		rEnd:   int64(last[0].End()),
		qStart: int64(first[1].Start()),
		qEnd:   int64(last[1].End()),
		rAln:   strings.ToUpper(fmt.Sprintf("%s", formatted[0])),
		qAln:   strings.ToUpper(fmt.Sprintf("%s", formatted[1])),
	}
	return hit, scoreAlignment(hit.qAln, hit.rAln), nil
}

// scoreAlignment re-scores a gapped pair with the aligner's matrix.
func scoreAlignment(q, r string) int {
	score := 0
	for i := 0; i < len(q) && i < len(r); i++ {
		switch {
		case q[i] == Gap || r[i] == Gap:
			score += gapScore
		case q[i] == r[i]:
			score += matchScore
		default:
			score += mismatchScore
		}
	}
	return score
}

// summarize fills the informational statistics from the gapped strings.
func summarize(rec *AlignmentRecord) {
	var identical, mismatches, gapOpens int64
	inGap := false
	for i := 0; i < len(rec.QuerySeq) && i < len(rec.SubjectSeq); i++ {
		q, s := rec.QuerySeq[i], rec.SubjectSeq[i]
		if q == Gap || s == Gap {
			if !inGap {
				gapOpens++
			}
			inGap = true
			continue
		}
		inGap = false
		if q == s {
			identical++
		} else {
			mismatches++
		}
	}
	rec.Length = int64(len(rec.QuerySeq))
	rec.Mismatches = mismatches
	rec.GapOpens = gapOpens
	if rec.Length > 0 {
		rec.IdentityPct = 100 * float64(identical) / float64(rec.Length)
	}
}

func checkResidues(r fasta.Record) error {
	for i := 0; i < len(r.Seq); i++ {
		switch r.Seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return fmt.Errorf("sequence %s: unsupported residue %q at position %d", r.ID, r.Seq[i], i+1)
		}
	}
	return nil
}
