package shadow

import (
	"fmt"
	"time"

	"github.com/wigg/datalayer/pkg/cache"
)

// Deduper suppresses identical divergences (same entity, id, field and
// values) seen again within a TTL.
type Deduper struct {
	seen *cache.LRUCache[string, struct{}]
}

// NewDeduper remembers up to size fingerprints for ttl each.
func NewDeduper(size int, ttl time.Duration) *Deduper {
	return &Deduper{seen: cache.NewLRUCache[string, struct{}](max(size, 1), cache.WithTTL(ttl))}
}

// newDeduperWithClock is used by tests to control expiry.
func newDeduperWithClock(size int, ttl time.Duration, now func() time.Time) *Deduper {
	return &Deduper{seen: cache.NewLRUCache[string, struct{}](max(size, 1), cache.WithTTL(ttl), cache.WithClock(now))}
}

// Seen reports whether d was already seen within the TTL and remembers it otherwise.
func (d *Deduper) Seen(div Divergence) bool {
	if d == nil {
		return false
	}
	_, loaded := d.seen.PutIfAbsent(fingerprint(div), struct{}{})
	return loaded
}

func fingerprint(d Divergence) string {
	return fmt.Sprintf("%s\x00%s\x00%s\x00%#v\x00%#v", d.EntityKey, d.EntityID, d.Field, d.LegacyValue, d.NewValue)
}
