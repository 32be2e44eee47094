// Package progress serves the progress points ("wiggs") the current caller
// marked on a title, plus a time-to-good estimate: the position of the
// first entry rated at least 1.
//
// The two layers disagree on purpose when nothing is rated yet: legacy
// reports DefaultT2GPct, the new layer reports no estimate. Shadow mode
// surfaces this as a t2g_estimate_pct divergence.
package progress
