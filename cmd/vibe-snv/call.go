package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-snv/internal/align"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/output"
	"github.com/inodb/vibe-snv/internal/variant"
)

func newCallCmd() *cobra.Command {
	var (
		geneName     string
		outputFormat string
		outputFile   string
		tabular      bool
	)

	cmd := &cobra.Command{
		Use:   "call --gene <GENE> <sample.fasta | alignments.tsv>",
		Short: "Call substitutions without consulting the catalog",
		Long: `Print the substitution calls for a sample. The input is either a sample FASTA,
aligned with the configured aligner, or with --tabular a BLAST outfmt-6 file
carrying the columns qseqid sseqid pident length mismatch gapopen qstart qend
sstart send evalue bitscore qseq sseq.`,
		Example: `  vibe-snv call --gene TP53 patient.fasta
  vibe-snv call --gene TP53 --tabular -f vcf hits.tsv > calls.vcf`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := gene.Parse(geneName)
			if err != nil {
				return usageError{err}
			}

			p, err := newPipeline(viper.GetViper(), false)
			if err != nil {
				return err
			}
			cfg, err := p.registry.Lookup(g)
			if err != nil {
				return err
			}

			var calls []variant.SubstitutionCall
			if tabular {
				calls, err = callTabular(args[0], cfg.Offset, p.callOpts)
			} else {
				calls, _, err = p.predictor.Calls(cmd.Context(), g, args[0])
			}
			if err != nil {
				return err
			}

			out, err := openOutput(cmd, outputFile)
			if err != nil {
				return err
			}
			defer out.Close()

			w, err := output.NewCallWriter(outputFormat, out, cfg)
			if err != nil {
				return usageError{err}
			}
			if err := w.WriteHeader(); err != nil {
				return fmt.Errorf("write header: %w", err)
			}
			for _, c := range calls {
				if err := w.Write(c); err != nil {
					return fmt.Errorf("write call: %w", err)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&geneName, "gene", "g", "", "Gene symbol (BRCA1, TP53, PTEN)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, vcf")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&tabular, "tabular", false, "Input is BLAST tabular output rather than FASTA")

	return cmd
}

func callTabular(path string, offset int64, opts []variant.Option) ([]variant.SubstitutionCall, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignments: %w", err)
	}
	defer f.Close()

	records, err := align.ReadTabular(f)
	if err != nil {
		return nil, err
	}
	return variant.Call(records, offset, opts...)
}
