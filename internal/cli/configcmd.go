package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/stylepipe/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the configuration after merging the config file,
STYLEPIPE_* environment variables and flags, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("encoding config: %w", err)}
			}

			w := cmd.OutOrStdout()

			if cfg.ConfigFile != "" {
				fmt.Fprintf(w, "# config file: %s\n", cfg.ConfigFile)
			}

			_, err = w.Write(data)

			return err
		},
	}

	registerStyleFlags(cmd)
	registerWatchFlags(cmd)

	return cmd
}
