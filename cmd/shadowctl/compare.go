package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/wigg/datalayer/pkg/feature"
)

// errDiverged makes the command exit non-zero so it can gate scripts.
var errDiverged = errors.New("legacy and new data layers diverged")

func newCompareCmd(a *app) *cobra.Command {
	var (
		caller  string
		output  string
		timeout time.Duration
		strict  bool
	)
	cmd := &cobra.Command{
		Use:   "compare <entity> <id>...",
		Short: "Fetch ids through both adapters and print any divergences",
		Example: `  shadowctl compare wigg-likes 6f1c... --caller user-42
  shadowctl compare user-wiggs media-1 media-2 -o json --strict`,
		Args: cobra.MinimumNArgs(2),
		RunE: a.closing(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if caller != "" {
				ctx = feature.WithCallerID(ctx, caller)
			}

			if err := a.connectForCompare(ctx); err != nil {
				return err
			}
			reporter, _, err := a.reporter()
			if err != nil {
				return err
			}
			all, _, err := a.entities(ctx, reporter)
			if err != nil {
				return err
			}
			e, err := lookupEntity(all, args[0])
			if err != nil {
				return err
			}

			results, diverged, err := runComparisons(ctx, e, args[1:], caller, timeout)
			if err != nil {
				return err
			}
			if err := a.render(output, results); err != nil {
				return err
			}
			if strict && diverged {
				return errDiverged
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&caller, "caller", "", "caller id the comparison runs as")
	cmd.Flags().StringVarP(&output, "output", "o", formatYAML, "yaml or json")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "limit per id")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any divergence is found")
	return cmd
}

// connectForCompare opens Postgres first so telemetry persistence can use it.
func (a *app) connectForCompare(ctx context.Context) error {
	_, err := a.postgres(ctx)
	return err
}

func runComparisons(ctx context.Context, e entity, ids []string, caller string, timeout time.Duration) ([]comparison, bool, error) {
	results := make([]comparison, 0, len(ids))
	diverged := false
	for _, id := range ids {
		c, err := compareOne(ctx, e, id, timeout)
		if err != nil {
			return nil, false, err
		}
		c.Caller = caller
		diverged = diverged || len(c.Divergences) > 0
		results = append(results, c)
	}
	return results, diverged, nil
}

func compareOne(ctx context.Context, e entity, id string, timeout time.Duration) (comparison, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return e.compare(ctx, id)
}
