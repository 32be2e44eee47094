// Package datasource defines the contract every backend of an entity
// implements so that the coexistence layer can treat legacy and new
// implementations as interchangeable and opaque.
//
// An Adapter only has to Fetch. Writes (Mutator) and push updates
// (Subscriber) are optional capabilities discovered with a type assertion,
// so an adapter that cannot write simply does not implement Mutate and the
// caller gets ErrUnsupportedOperation.
//
// Adapters own their error mapping and retry policy. Backend failures are
// mapped to *Error with a backend-independent Code; Retry wraps
// github.com/sethvargo/go-retry and only retries CodeNetwork failures.
//
//	func (a *LegacyAdapter) Fetch(ctx context.Context, id string) (Likes, error) {
//		return datasource.Retry(ctx, a.retry, func(ctx context.Context) (Likes, error) {
//			n, err := a.backend.LikeCount(ctx, id)
//			if err != nil {
//				return Likes{}, datasource.NewError(datasource.CodeNetwork, a.Name(), "like count", err)
//			}
//			return Likes{Count: n}, nil
//		})
//	}
//
// State is what consumers see; Outcome is the settled result of one call.
package datasource
