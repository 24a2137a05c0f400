package predict

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-snv/internal/align"
	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/variant"
)

// fakeAligner returns canned records per sample path.
type fakeAligner struct {
	mu      sync.Mutex
	records map[string][]align.AlignmentRecord
	err     error
	refs    []string
}

func (f *fakeAligner) Align(_ context.Context, queryPath, referencePath string) ([]align.AlignmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = append(f.refs, referencePath)
	if f.err != nil {
		return nil, f.err
	}
	return f.records[queryPath], nil
}

type fakeCatalog struct {
	mu      sync.Mutex
	rows    []catalog.PathogenicVariantRecord
	err     error
	queries int
	tables  []string
}

func (f *fakeCatalog) PathogenicSNVs(_ context.Context, _ gene.Gene, table string) ([]catalog.PathogenicVariantRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	f.tables = append(f.tables, table)
	return f.rows, f.err
}

func record(q, s string, sstart, send int64) align.AlignmentRecord {
	return align.AlignmentRecord{
		QueryID: "sample", SubjectID: "ref",
		QueryStart: 1, QueryEnd: int64(len(q)),
		SubjectStart: sstart, SubjectEnd: send,
		QuerySeq: q, SubjectSeq: s,
	}
}

func testRegistry(t *testing.T) *gene.Registry {
	t.Helper()
	reg, err := gene.NewRegistry(gene.Config{
		Gene: gene.TP53, Chrom: "17", Offset: 1000,
		Reference: "/refs/tp53.fasta", Table: "tp53_variants",
	})
	require.NoError(t, err)
	return reg
}

var tp53Rows = []catalog.PathogenicVariantRecord{
	{Position: 1003, Ref: "T", Alt: "G", ClinicalSignificance: "Pathogenic", Disease: "Li-Fraumeni syndrome", VariantType: catalog.VariantTypeSNV},
}

func newTestPredictor(t *testing.T, al *fakeAligner, cat *fakeCatalog) (*Predictor, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	p := New(testRegistry(t), al, cat)
	p.SetLogger(zap.New(core))
	return p, logs
}

func TestPredict_PathogenicFound(t *testing.T) {
	al := &fakeAligner{records: map[string][]align.AlignmentRecord{
		"s1.fasta": {record("ACGTA", "ACTTA", 1, 5)},
	}}
	cat := &fakeCatalog{rows: tp53Rows}
	p, logs := newTestPredictor(t, al, cat)

	res, err := p.Predict(context.Background(), gene.TP53, "s1.fasta")
	require.NoError(t, err)

	assert.Equal(t, StatusPathogenicFound, res.Status)
	assert.Equal(t, "s1.fasta", res.Sample)
	assert.Equal(t, 1, res.Alignments)
	assert.Equal(t, []variant.SubstitutionCall{{Position: 1003, Ref: "T", Alt: "G"}}, res.Calls)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, []string{"Li-Fraumeni syndrome"}, res.Diseases())

	assert.Equal(t, []string{"/refs/tp53.fasta"}, al.refs)
	assert.Equal(t, []string{"tp53_variants"}, cat.tables)
	assert.Equal(t, 1, logs.FilterMessage("matched pathogenic mutations").Len())
}

func TestPredict_NoMutations(t *testing.T) {
	al := &fakeAligner{records: map[string][]align.AlignmentRecord{
		"s1.fasta": {record("ACGTA", "ACGTA", 1, 5)},
	}}
	cat := &fakeCatalog{rows: tp53Rows}
	p, logs := newTestPredictor(t, al, cat)

	res, err := p.Predict(context.Background(), gene.TP53, "s1.fasta")
	require.NoError(t, err)
	assert.Equal(t, StatusNoMutations, res.Status)
	assert.Empty(t, res.Matches)
	assert.Zero(t, cat.queries, "catalog must not be queried without calls")
	assert.Equal(t, 1, logs.FilterMessage("no mutations found in sample").Len())
}

func TestPredict_NoPathogenic(t *testing.T) {
	al := &fakeAligner{records: map[string][]align.AlignmentRecord{
		"s1.fasta": {record("ACGTA", "ACGTC", 1, 5)},
	}}
	cat := &fakeCatalog{rows: tp53Rows}
	p, logs := newTestPredictor(t, al, cat)

	res, err := p.Predict(context.Background(), gene.TP53, "s1.fasta")
	require.NoError(t, err)
	assert.Equal(t, StatusNoPathogenic, res.Status)
	assert.Len(t, res.Calls, 1)
	assert.Empty(t, res.Diseases())
	assert.Equal(t, 1, logs.FilterMessage("mutations found but none pathogenic").Len())
}

func TestPredict_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unsupported gene", func(t *testing.T) {
		al := &fakeAligner{}
		p, _ := newTestPredictor(t, al, &fakeCatalog{})
		_, err := p.Predict(ctx, gene.BRCA1, "s1.fasta")
		assert.ErrorIs(t, err, gene.ErrUnsupportedGene)
		assert.Empty(t, al.refs, "aligner must not run for an unsupported gene")
	})

	t.Run("aligner failure", func(t *testing.T) {
		boom := errors.New("blastn exploded")
		p, _ := newTestPredictor(t, &fakeAligner{err: boom}, &fakeCatalog{})
		_, err := p.Predict(ctx, gene.TP53, "s1.fasta")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("malformed alignment", func(t *testing.T) {
		al := &fakeAligner{records: map[string][]align.AlignmentRecord{
			"s1.fasta": {record("ACGT", "ACG", 1, 3)},
		}}
		p, _ := newTestPredictor(t, al, &fakeCatalog{})
		_, err := p.Predict(ctx, gene.TP53, "s1.fasta")
		assert.ErrorIs(t, err, variant.ErrMalformedAlignment)
	})

	t.Run("catalog unavailable", func(t *testing.T) {
		al := &fakeAligner{records: map[string][]align.AlignmentRecord{
			"s1.fasta": {record("ACGTA", "ACTTA", 1, 5)},
		}}
		p, _ := newTestPredictor(t, al, &fakeCatalog{err: errors.New("disk gone")})
		_, err := p.Predict(ctx, gene.TP53, "s1.fasta")
		assert.ErrorIs(t, err, catalog.ErrCatalogUnavailable)
	})
}

func TestPredict_GapPolicyOption(t *testing.T) {
	al := &fakeAligner{records: map[string][]align.AlignmentRecord{
		"s1.fasta": {record("A-CG", "ATCT", 1, 4)},
	}}
	p, _ := newTestPredictor(t, al, &fakeCatalog{})

	res, err := p.Predict(context.Background(), gene.TP53, "s1.fasta")
	require.NoError(t, err)
	assert.Equal(t, int64(1003), res.Calls[0].Position)

	p.SetCallOptions(variant.WithGapPolicy(variant.QueryGapAdvances))
	res, err = p.Predict(context.Background(), gene.TP53, "s1.fasta")
	require.NoError(t, err)
	assert.Equal(t, int64(1004), res.Calls[0].Position)
}

func TestPredictCalls(t *testing.T) {
	p, _ := newTestPredictor(t, &fakeAligner{}, &fakeCatalog{rows: tp53Rows})

	res, err := p.PredictCalls(context.Background(), gene.TP53,
		[]variant.SubstitutionCall{{Position: 1003, Ref: "t", Alt: "g"}})
	require.NoError(t, err)
	assert.Equal(t, StatusPathogenicFound, res.Status)
	assert.Empty(t, res.Sample)
}

func TestPredictBatch_Order(t *testing.T) {
	al := &fakeAligner{records: map[string][]align.AlignmentRecord{}}
	var paths []string
	for i := range 40 {
		path := fmt.Sprintf("s%02d.fasta", i)
		paths = append(paths, path)
		if i%2 == 0 {
			al.records[path] = []align.AlignmentRecord{record("ACGTA", "ACTTA", 1, 5)}
		}
	}
	p, _ := newTestPredictor(t, al, &fakeCatalog{rows: tp53Rows})

	var got []string
	err := p.PredictBatch(context.Background(), gene.TP53, paths, 6, func(r WorkResult) error {
		require.NoError(t, r.Err)
		got = append(got, r.Path)
		want := StatusNoMutations
		if r.Seq%2 == 0 {
			want = StatusPathogenicFound
		}
		assert.Equal(t, want, r.Result.Status, r.Path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, paths, got)
}

func TestPredictBatch_StopsOnCallbackError(t *testing.T) {
	paths := make([]string, 100)
	for i := range paths {
		paths[i] = fmt.Sprintf("s%d.fasta", i)
	}
	p, _ := newTestPredictor(t, &fakeAligner{}, &fakeCatalog{})

	stop := errors.New("stop")
	seen := 0
	err := p.PredictBatch(context.Background(), gene.TP53, paths, 4, func(WorkResult) error {
		seen++
		if seen == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, seen)
}

func TestPredictBatch_PerSampleErrors(t *testing.T) {
	p, _ := newTestPredictor(t, &fakeAligner{err: errors.New("no such file")}, &fakeCatalog{})

	var errs int
	err := p.PredictBatch(context.Background(), gene.TP53, []string{"a", "b"}, 2, func(r WorkResult) error {
		if r.Err != nil {
			errs++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, errs)
}

func TestPredictBatch_UnsupportedGene(t *testing.T) {
	p, _ := newTestPredictor(t, &fakeAligner{}, &fakeCatalog{})
	err := p.PredictBatch(context.Background(), gene.PTEN, []string{"a"}, 1, func(WorkResult) error { return nil })
	assert.ErrorIs(t, err, gene.ErrUnsupportedGene)
}

func TestPredictBatch_Canceled(t *testing.T) {
	p, _ := newTestPredictor(t, &fakeAligner{}, &fakeCatalog{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PredictBatch(ctx, gene.TP53, []string{"a", "b", "c"}, 2, func(r WorkResult) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
