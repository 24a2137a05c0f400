package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/output"
	"github.com/inodb/vibe-snv/internal/predict"
)

func newPredictCmd() *cobra.Command {
	var (
		geneName     string
		outputFormat string
		outputFile   string
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "predict --gene <GENE> <sample.fasta>...",
		Short: "Predict diseases from sample FASTA files",
		Long: `Align each sample against the gene reference, call substitutions and report
the calls listed as pathogenic SNVs in the catalog. Samples are processed in
parallel; results keep the input order.`,
		Example: `  vibe-snv predict --gene BRCA1 patient.fasta
  vibe-snv predict --gene TP53 -f csv -o results.csv s1.fasta s2.fasta s3.fasta`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gene.Parse(geneName)
			if err != nil {
				return usageError{err}
			}
			return runPredict(cmd, g, args, outputFormat, outputFile, workers)
		},
	}

	cmd.Flags().StringVarP(&geneName, "gene", "g", "", "Gene symbol (BRCA1, TP53, PTEN)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, csv, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "Parallel samples (default: number of CPUs)")

	return cmd
}

func runPredict(cmd *cobra.Command, g gene.Gene, samples []string, format, outPath string, workers int) error {
	out, err := openOutput(cmd, outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := output.NewMatchWriter(format, out)
	if err != nil {
		return usageError{err}
	}

	p, err := newPipeline(viper.GetViper(), true)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var failed int
	err = p.predictor.PredictBatch(cmd.Context(), g, samples, workers, func(r predict.WorkResult) error {
		if r.Err != nil {
			failed++
			logger.Error("prediction failed", zap.String("sample", r.Path), zap.Error(r.Err))
			return nil
		}
		logger.Info("sample done",
			zap.String("sample", r.Path),
			zap.String("status", string(r.Result.Status)),
			zap.Int("calls", len(r.Result.Calls)),
			zap.Int("matches", len(r.Result.Matches)))
		return w.WriteResult(r.Result)
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d samples failed", failed, len(samples))
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns the command's stdout for "" or "-", else creates path.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return f, nil
}
