// Package async provides small generic helpers for running computations in
// the background and collecting their results later.
//
// The central type is Future. Go starts a function in its own goroutine and
// returns a *Future immediately; Async is the same with an explicit parameter.
// Callers wait with Await, AwaitContext or AwaitWithTimeout, select on Done,
// or poll with IsComplete. Resolved and Failed build already completed futures,
// which is handy for adapters that can answer without I/O.
//
// # Usage
//
//	f := async.Go(ctx, func(ctx context.Context) (int, error) {
//	    return backend.LikeCount(ctx, pointID)
//	})
//
//	// do other work …
//	count, err := f.Await()
//
// # Error Handling
//
// Futures carry whatever error the function returned. A panic in the function
// is recovered and reported as an error wrapping ErrPanicked. AwaitWithTimeout
// returns ErrTimeout when the deadline passes first; the task keeps running.
//
// If the context passed to Go is already cancelled, the function is not run
// and the future completes with ctx.Err().
package async
