package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-snv/internal/gene"
)

func newGenesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genes",
		Short: "List supported genes and their configuration",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := gene.LoadRegistry(viper.GetViper())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "GENE\tCHROM\tOFFSET\tTABLE\tREFERENCE")
			for _, g := range reg.Genes() {
				c, _ := reg.Lookup(g)
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", c.Gene, c.Chrom, c.Offset, c.Table, c.Reference)
			}
			return tw.Flush()
		},
	}
}
