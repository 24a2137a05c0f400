package main

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/inodb/vibe-snv/internal/align"
	"github.com/inodb/vibe-snv/internal/catalog"
	"github.com/inodb/vibe-snv/internal/duckdb"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/predict"
	"github.com/inodb/vibe-snv/internal/sqlite"
	"github.com/inodb/vibe-snv/internal/variant"
)

// openCatalog opens the backend named by catalog.backend.
func openCatalog(v *viper.Viper) (catalog.Catalog, io.Closer, error) {
	path := expandHome(v.GetString("catalog.path"))
	switch backend := v.GetString("catalog.backend"); backend {
	case "duckdb":
		s, err := duckdb.Open(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "sqlite":
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, nil, err
		}
		s.SetLogger(logger)
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog backend %q (supported: duckdb, sqlite)", backend)
	}
}

// newAligner builds the aligner named by aligner.kind.
func newAligner(v *viper.Viper) (align.Aligner, error) {
	switch kind := v.GetString("aligner.kind"); kind {
	case "blast":
		a := align.NewBlastAligner()
		a.Blastn = v.GetString("aligner.blastn")
		a.MakeBlastDB = v.GetString("aligner.makeblastdb")
		a.ExtraArgs = v.GetStringSlice("aligner.blast_args")
		a.SetLogger(logger)
		return a, nil
	case "local":
		a := align.NewLocalAligner()
		a.MinScore = v.GetInt("aligner.min_score")
		a.SetLogger(logger)
		return a, nil
	default:
		return nil, fmt.Errorf("unknown aligner %q (supported: blast, local)", kind)
	}
}

func callOptions(v *viper.Viper) ([]variant.Option, error) {
	policy, err := variant.ParseGapPolicy(v.GetString("caller.gap_policy"))
	if err != nil {
		return nil, err
	}
	anchor, err := variant.ParseAnchor(v.GetString("caller.anchor"))
	if err != nil {
		return nil, err
	}
	return []variant.Option{variant.WithGapPolicy(policy), variant.WithAnchor(anchor)}, nil
}

// pipeline holds everything a prediction command needs.
type pipeline struct {
	registry  *gene.Registry
	predictor *predict.Predictor
	callOpts  []variant.Option
	closer    io.Closer
}

func (p *pipeline) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// newPipeline wires registry, aligner, caller options and catalog from v.
// The catalog is only opened when withCatalog is set.
func newPipeline(v *viper.Viper, withCatalog bool) (*pipeline, error) {
	reg, err := gene.LoadRegistry(v)
	if err != nil {
		return nil, err
	}
	aligner, err := newAligner(v)
	if err != nil {
		return nil, err
	}
	opts, err := callOptions(v)
	if err != nil {
		return nil, err
	}

	p := &pipeline{registry: reg, callOpts: opts}
	var cat catalog.Catalog
	if withCatalog {
		c, closer, err := openCatalog(v)
		if err != nil {
			return nil, err
		}
		cat, p.closer = c, closer
	}

	p.predictor = predict.New(reg, aligner, cat)
	p.predictor.SetCallOptions(opts...)
	p.predictor.SetLogger(logger)
	return p, nil
}
