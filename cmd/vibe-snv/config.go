package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-snv configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.vibe-snv.yaml.",
		Example: `  vibe-snv config                                # show all config
  vibe-snv config set aligner.kind local           # use the built-in aligner
  vibe-snv config set genes.BRCA1.reference ~/refs/brca1.fasta
  vibe-snv config get catalog.path                 # get a value`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	out, err := yaml.Marshal(viper.AllSettings())
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "# No config file; showing defaults. Config file: ~/.vibe-snv.yaml")
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

// configWriter writes only values read from the config file or set
// explicitly, so defaults stay defaults.
func configWriter(key string, value any) *viper.Viper {
	w := viper.New()
	if used := viper.ConfigFileUsed(); used != "" {
		w.SetConfigFile(used)
		_ = w.ReadInConfig()
	}
	w.Set(key, value)
	return w
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	var v any = value
	switch value {
	case "true", "yes", "on":
		v = true
	case "false", "no", "off":
		v = false
	}

	cfgPath := viper.ConfigFileUsed()
	if cfgPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgPath = filepath.Join(home, ".vibe-snv.yaml")
	}

	if err := configWriter(key, v).WriteConfigAs(cfgPath); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	viper.Set(key, v)

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", key, value, cfgPath)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
