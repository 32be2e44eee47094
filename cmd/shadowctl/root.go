package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(version string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Inspect and compare the legacy and new data layers",
		Long: `shadowctl operates the data layer coexistence rollout.

It resolves the per-entity "-data-layer" flags, applies the schema migrations,
runs one-off shadow comparisons between the legacy and new adapters and serves
divergence metrics while the rollout is in progress.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading the environment, ignored when missing")
	pf.StringVar(&a.flagsFile, "flags-file", "", "YAML file of flag overrides (overrides DATALAYER_FLAGS_FILE)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newFlagsCmd(a),
		newMigrateCmd(a),
		newCompareCmd(a),
		newWatchCmd(a),
	)
	return root
}
