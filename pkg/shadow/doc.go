// Package shadow compares the results of the legacy and new data adapters
// for the same request and reports where they disagree.
//
// A Policy is an explicit allow-list of fields. Only fields named by a Rule
// are compared, so transport-specific extras never produce noise:
//
//	policy := shadow.NewPolicy(
//	    shadow.Exact("liked", func(l Likes) bool { return l.Liked }),
//	    shadow.Numeric("count", func(l Likes) float64 { return float64(l.Count) }, 0),
//	)
//
// Compare is deterministic: divergences come out in rule order. If both
// adapters failed there is nothing to compare; if only one failed the pair
// yields a single "outcome" divergence. A rule that panics is recovered and
// the comparison is treated as clean.
//
// Numeric tolerances can be overridden per entity and field from a TOML file
// (LoadTolerances). A Recorder ties a Policy to telemetry: it suppresses
// repeats with a Deduper, feeds a RateMonitor that raises divergence_rate
// events when an entity's recent divergence share crosses a threshold, and
// reports each new divergence.
package shadow
