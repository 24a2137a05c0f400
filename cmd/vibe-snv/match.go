package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/output"
	"github.com/inodb/vibe-snv/internal/vcf"
)

func newMatchCmd() *cobra.Command {
	var (
		geneName     string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "match --gene <GENE> <calls.vcf>",
		Short: "Match SNVs from a VCF against the catalog",
		Long: `Join the single-base substitutions of a VCF against the gene's pathogenic
catalog entries without running an aligner. Indels and multi-base rows are
skipped. Use '-' to read stdin.`,
		Example: `  vibe-snv match --gene PTEN calls.vcf
  vibe-snv call --gene PTEN -f vcf patient.fasta | vibe-snv match --gene PTEN -`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gene.Parse(geneName)
			if err != nil {
				return usageError{err}
			}

			parser, err := vcf.NewParser(args[0])
			if err != nil {
				return err
			}
			defer parser.Close()

			calls, skipped, err := vcf.ReadCalls(parser)
			if err != nil {
				return err
			}
			if skipped > 0 {
				logger.Info("skipped non-SNV records", zap.Int("skipped", skipped))
			}

			p, err := newPipeline(viper.GetViper(), true)
			if err != nil {
				return err
			}
			defer p.Close()

			res, err := p.predictor.PredictCalls(cmd.Context(), g, calls)
			if err != nil {
				return err
			}
			res.Sample = args[0]

			out, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			defer out.Close()

			w, err := output.NewMatchWriter(outputFormat, out)
			if err != nil {
				return usageError{err}
			}
			if err := w.WriteHeader(); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			if err := w.WriteResult(res); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&geneName, "gene", "g", "", "Gene symbol (BRCA1, TP53, PTEN)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, csv, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
