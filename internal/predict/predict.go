// Package predict runs the disease-prediction pipeline: align a sample against
// the gene reference, call substitutions and match them against the catalog.
package predict

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/align"
	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/variant"
)

// Status summarizes the outcome of a prediction.
type Status string

const (
	StatusNoMutations     Status = "no_mutations"
	StatusNoPathogenic    Status = "no_pathogenic"
	StatusPathogenicFound Status = "pathogenic_found"
)

// Result is the outcome of one prediction.
type Result struct {
	Gene       gene.Gene                  `json:"gene"`
	Sample     string                     `json:"sample,omitempty"`
	Alignments int                        `json:"alignments"`
	Calls      []variant.SubstitutionCall `json:"calls"`
	Matches    []catalog.MatchedVariant   `json:"matches"`
	Status     Status                     `json:"status"`
}

// Diseases returns the non-empty disease names of the matches, in match order.
func (r *Result) Diseases() []string {
	return catalog.Diseases(r.Matches)
}

// Predictor wires an aligner and a catalog to the gene registry.
type Predictor struct {
	registry *gene.Registry
	aligner  align.Aligner
	catalog  catalog.Catalog
	callOpts []variant.Option
	logger   *zap.Logger
}

// New creates a predictor.
func New(reg *gene.Registry, aligner align.Aligner, cat catalog.Catalog) *Predictor {
	return &Predictor{
		registry: reg,
		aligner:  aligner,
		catalog:  cat,
		logger:   zap.NewNop(),
	}
}

// SetCallOptions sets the options passed to variant.Call.
func (p *Predictor) SetCallOptions(opts ...variant.Option) {
	p.callOpts = opts
}

// SetLogger sets the logger for pipeline events.
func (p *Predictor) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Registry returns the gene registry.
func (p *Predictor) Registry() *gene.Registry {
	return p.registry
}

// Calls aligns the sample against the gene reference and returns the
// substitution calls along with the number of alignment records.
func (p *Predictor) Calls(ctx context.Context, g gene.Gene, samplePath string) ([]variant.SubstitutionCall, int, error) {
	cfg, err := p.registry.Lookup(g)
	if err != nil {
		return nil, 0, err
	}

	records, err := p.aligner.Align(ctx, samplePath, cfg.Reference)
	if err != nil {
		return nil, 0, fmt.Errorf("align sample: %w", err)
	}

	calls, err := variant.Call(records, cfg.Offset, p.callOpts...)
	if err != nil {
		return nil, len(records), err
	}
	return calls, len(records), nil
}

// Predict runs the full pipeline for one sample FASTA.
func (p *Predictor) Predict(ctx context.Context, g gene.Gene, samplePath string) (*Result, error) {
	calls, n, err := p.Calls(ctx, g, samplePath)
	if err != nil {
		return nil, err
	}

	res, err := p.PredictCalls(ctx, g, calls)
	if err != nil {
		return nil, err
	}
	res.Sample = samplePath
	res.Alignments = n
	return res, nil
}

// PredictCalls matches already-called substitutions against the catalog.
func (p *Predictor) PredictCalls(ctx context.Context, g gene.Gene, calls []variant.SubstitutionCall) (*Result, error) {
	cfg, err := p.registry.Lookup(g)
	if err != nil {
		return nil, err
	}

	res := &Result{Gene: g, Calls: calls, Status: StatusNoMutations}
	if len(calls) == 0 {
		p.logger.Info("no mutations found in sample", zap.String("gene", string(g)))
		return res, nil
	}

	matches, err := catalog.Match(ctx, calls, g, cfg.Table, p.catalog)
	if err != nil {
		return nil, err
	}
	res.Matches = matches

	if len(matches) == 0 {
		res.Status = StatusNoPathogenic
		p.logger.Info("mutations found but none pathogenic",
			zap.String("gene", string(g)),
			zap.Int("calls", len(calls)))
		return res, nil
	}

	res.Status = StatusPathogenicFound
	p.logger.Info("matched pathogenic mutations",
		zap.String("gene", string(g)),
		zap.Int("calls", len(calls)),
		zap.Int("matches", len(matches)))
	return res, nil
}
