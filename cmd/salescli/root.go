package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ViennaKaggle/prudential-life-insurance-assessment/pkg/contracts"
)

// rootOptions holds the global flags
type rootOptions struct {
	configPath string
	dataDir    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "salescli",
		Short: "Build store sales feature tables and evaluate baseline models",
		Long: `salescli turns the raw train.csv, test.csv and store.csv files into
model-ready feature tables. It adds calendar, competition and school holiday
features plus per-store sales distributions split by competition era.

Configuration comes from defaults, an optional YAML file and SALES_*
environment variables, in increasing order of precedence.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is ./config.yaml or ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory holding train.csv, test.csv and store.csv")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newFeaturizeCmd(opts),
		newEvaluateCmd(opts),
		newSubmitCmd(opts),
		newDistributionsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(contracts.GetVersionInfo())
			}
			cmd.Println(contracts.GetFullVersionString())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	return cmd
}
