// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// The cache evicts the least recently used item once it exceeds its
// capacity. With WithTTL every entry also expires a fixed time after it was
// last written; expired entries are dropped lazily on access or eagerly via
// Purge.
//
// # Usage
//
//	c := cache.NewLRUCache[string, int](1024, cache.WithTTL(10*time.Minute))
//
//	c.Put("likes:42", 7)
//	v, ok := c.Get("likes:42")
//
//	// Atomic check-and-set, e.g. for "report once per window" logic.
//	if _, seen := c.PutIfAbsent(fingerprint, struct{}{}); seen {
//		return
//	}
//
// Eviction callbacks run for capacity evictions, expiry, Remove and Clear,
// while the cache lock is held; they must not call back into the cache.
package cache
