package main

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/feature"
)

type flagRow struct {
	feature.Trace `yaml:",inline"`
	Entity        string `json:"entity,omitempty" yaml:"entity,omitempty"`
	Error         string `json:"error,omitempty" yaml:"error,omitempty"`
}

func newFlagsCmd(a *app) *cobra.Command {
	var (
		caller string
		output string
		def    bool
	)
	cmd := &cobra.Command{
		Use:   "flags [flag-key...]",
		Short: "Show how each data layer flag resolves",
		Long: `Resolve data layer flags the way a hook would for the given caller.

Without arguments every entity flag is listed, plus any extra keys defined in
the flags file.`,
		RunE: a.closing(func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if caller != "" {
				ctx = feature.WithCallerID(ctx, caller)
			}
			rows := make([]flagRow, 0, len(args))
			for _, key := range flagKeys(a, args) {
				tr := a.resolver.Trace(ctx, key, feature.Default(def))
				row := flagRow{Trace: tr, Entity: entityForFlag(key)}
				if tr.Err != nil {
					row.Error = tr.Err.Error()
				}
				rows = append(rows, row)
			}
			return a.render(output, rows)
		}),
	}
	cmd.Flags().StringVar(&caller, "caller", "", "caller id used by per-caller strategies")
	cmd.Flags().StringVarP(&output, "output", "o", formatYAML, "yaml or json")
	cmd.Flags().BoolVar(&def, "default", false, "local default when no source answers")
	return cmd
}

func flagKeys(a *app, args []string) []string {
	if len(args) > 0 {
		return args
	}
	keys := make([]string, 0, 3)
	for _, e := range entityKeys() {
		keys = append(keys, coexist.FlagKey(e))
	}
	if a.flags != nil {
		for _, k := range a.flags.Keys() {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys[3:])
	return keys
}

func entityForFlag(key string) string {
	for _, e := range entityKeys() {
		if coexist.FlagKey(e) == key {
			return e
		}
	}
	return ""
}
