// Package main provides the vibe-snv command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad arguments or flags.
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run 'vibe-snv --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

var (
	cfgFile string
	verbose bool
	logger  = zap.NewNop()
)

func newRootCmd() *cobra.Command {
	setDefaults(viper.GetViper())

	root := &cobra.Command{
		Use:   "vibe-snv",
		Short: "Pathogenic SNV finder",
		Long: `vibe-snv aligns patient sequences against a gene reference, calls single
nucleotide substitutions and reports those listed as pathogenic in ClinVar.`,
		Example: `  # One-time setup: fetch and load ClinVar
  vibe-snv catalog download
  vibe-snv catalog load ~/.vibe-snv/variant_summary.txt.gz

  # Predict diseases for a sample
  vibe-snv predict --gene BRCA1 patient.fasta

  # Serve the HTTP API
  vibe-snv serve --addr :8000`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			l, err := newLogger(verbose)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ~/.vibe-snv.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	root.AddCommand(
		newPredictCmd(),
		newCallCmd(),
		newMatchCmd(),
		newServeCmd(),
		newCatalogCmd(),
		newGenesCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-snv version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// usageArgs wraps a cobra argument validator so its failures exit with ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.backend", "duckdb")
	v.SetDefault("catalog.path", filepath.Join(dataDir(), "clinvar.duckdb"))
	v.SetDefault("catalog.assembly", "GRCh38")
	v.SetDefault("aligner.kind", "blast")
	v.SetDefault("aligner.blastn", "blastn")
	v.SetDefault("aligner.makeblastdb", "makeblastdb")
	v.SetDefault("aligner.min_score", 20)
	v.SetDefault("caller.gap_policy", "subject-gap-advances")
	v.SetDefault("caller.anchor", "low")
	v.SetDefault("server.addr", ":8000")
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vibe-snv")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_SNV")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// dataDir returns ~/.vibe-snv, the default home of the catalog and references.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vibe-snv"
	}
	return filepath.Join(home, ".vibe-snv")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
