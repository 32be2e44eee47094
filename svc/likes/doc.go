// Package likes serves the like count of a wigg point and whether the
// current caller liked it, from either the legacy RPC functions or the new
// aggregate query.
//
// The caller is read from the request context with feature.CallerIDFromContext.
// Anonymous callers see Liked=false and cannot toggle.
package likes
