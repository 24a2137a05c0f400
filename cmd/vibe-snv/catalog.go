package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-snv/internal/duckdb"
	"github.com/inodb/vibe-snv/internal/gene"
	"github.com/inodb/vibe-snv/internal/sqlite"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the ClinVar variant catalog",
		Long: `Download, load and inspect the DuckDB variant catalog (catalog.path,
default ~/.vibe-snv/clinvar.duckdb).`,
	}
	cmd.AddCommand(
		newCatalogDownloadCmd(),
		newCatalogLoadCmd(),
		newCatalogImportSQLiteCmd(),
		newCatalogStatsCmd(),
	)
	return cmd
}

func openStore() (*duckdb.Store, error) {
	if b := viper.GetString("catalog.backend"); b != "duckdb" {
		return nil, fmt.Errorf("catalog commands need the duckdb backend (catalog.backend is %q)", b)
	}
	return duckdb.Open(expandHome(viper.GetString("catalog.path")))
}

func newCatalogLoadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "load <variant_summary.txt[.gz]>",
		Short: "Load ClinVar variant_summary into the catalog",
		Long: `Load the rows of ClinVar's variant_summary.txt for the supported genes and the
configured assembly (catalog.assembly). Reloading an unchanged file is skipped
unless --force is given.`,
		Example: `  vibe-snv catalog load ~/.vibe-snv/variant_summary.txt.gz
  vibe-snv catalog load --force variant_summary.txt`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			reg, err := gene.LoadRegistry(viper.GetViper())
			if err != nil {
				return err
			}

			assembly := viper.GetString("catalog.assembly")
			res, err := store.LoadClinVar(cmd.Context(), args[0], reg.Genes(), assembly, force)
			if err != nil {
				return err
			}
			if res.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already loaded for %s, skipping (use --force to reload)\n", args[0], assembly)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d %s variants into %s\n", res.Rows, assembly, store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reload even if the file is unchanged")
	return cmd
}

func newCatalogImportSQLiteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-sqlite <clinvar.db>",
		Short: "Import a legacy per-gene SQLite catalog",
		Long: `Copy each configured gene's table (genes.<GENE>.table, default
<gene>_variants) from a legacy SQLite catalog into the DuckDB catalog,
replacing rows previously stored for that gene and assembly. Genes whose table
is missing are skipped with a warning.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			src, err := sqlite.Open(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			src.SetLogger(logger)

			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			reg, err := gene.LoadRegistry(viper.GetViper())
			if err != nil {
				return err
			}

			assembly := viper.GetString("catalog.assembly")
			for _, g := range reg.Genes() {
				cfg, _ := reg.Lookup(g)
				ok, err := src.HasTable(ctx, cfg.Table)
				if err != nil {
					return err
				}
				if !ok {
					logger.Warn("table not found, skipping", zap.String("gene", string(g)), zap.String("table", cfg.Table))
					continue
				}

				rows, err := src.ReadAll(ctx, g, cfg.Table)
				if err != nil {
					return err
				}
				if err := store.ReplaceVariants(ctx, g, assembly, rows); err != nil {
					return fmt.Errorf("import %s: %w", g, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d %s rows from %s\n", len(rows), g, cfg.Table)
			}
			return nil
		},
	}
}

func newCatalogStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-gene catalog row counts",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GENE\tROWS\tPATHOGENIC_SNVS")
			for _, st := range stats {
				fmt.Fprintf(tw, "%s\t%d\t%d\n", st.Gene, st.Rows, st.PathogenicSNVs)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			src, err := store.LastSource(cmd.Context(), viper.GetString("catalog.assembly"))
			if err != nil {
				return err
			}
			if src != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nSource: %s (%s, loaded %s)\n",
					src.Path, formatSize(src.Size), src.LoadedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newCatalogDownloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download ClinVar variant_summary.txt.gz",
		Example: `  vibe-snv catalog download
  vibe-snv catalog download --output /data/clinvar`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = dataDir()
			}
			dest := filepath.Join(outputDir, filepath.Base(clinvarSummaryURL))
			if err := downloadFile(cmd.Context(), cmd.OutOrStdout(), clinvarSummaryURL, dest); err != nil {
				return fmt.Errorf("download ClinVar: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nTo load it, run:\n  vibe-snv catalog load %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output", "", "Output directory (default: ~/.vibe-snv/)")
	return cmd
}
