package main

import (
	"github.com/spf13/cobra"

	"github.com/wigg/datalayer/pkg/pg"
)

func newMigrateCmd(a *app) *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: a.closing(func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := a.postgres(ctx)
			if err != nil {
				return err
			}
			if !statusOnly {
				if err := pg.Migrate(ctx, pool, a.pgCfg, a.log); err != nil {
					return err
				}
			}
			version, err := pg.MigrationVersion(ctx, pool, a.pgCfg, a.log)
			if err != nil {
				return err
			}
			a.printf("schema version %d\n", version)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the applied version")
	return cmd
}
