// Package follows serves whether the current caller follows a profile.
//
// The legacy layer keeps follow sets in Redis and pushes changes over
// pub/sub; the new layer reads the user_follows table. Viewing your own
// profile never touches either backend.
package follows
