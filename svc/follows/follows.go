package follows

import (
	"context"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/shadow"
)

// EntityKey identifies follow status in flags and telemetry.
const EntityKey = "follow-user"

// Status is the caller's relation to a profile.
type Status struct {
	IsFollowing  bool `json:"is_following"`
	IsOwnProfile bool `json:"is_own_profile"`
}

// Change follows or unfollows a profile.
type Change struct {
	Follow bool `json:"follow"`
}

// LegacyBackend is the legacy follow graph.
type LegacyBackend interface {
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
	Follow(ctx context.Context, followerID, targetID string) error
	Unfollow(ctx context.Context, followerID, targetID string) error
}

// Watcher is implemented by backends that can push follow changes.
// onChange is called after any change to followerID's follow set.
type Watcher interface {
	Watch(ctx context.Context, followerID string, onChange func()) (stop func())
}

// Store is the storage behind the new data layer.
type Store interface {
	IsFollowing(ctx context.Context, followerID, targetID string) (bool, error)
	SetFollowing(ctx context.Context, followerID, targetID string, follow bool) (bool, error)
}

// NewDataLayer returns the coexistence factory for follow status.
func NewDataLayer(legacy, next datasource.Adapter[Status], opts ...coexist.Option) *coexist.Factory[Status, Change] {
	return coexist.New[Status, Change](EntityKey, legacy, next, opts...)
}

// ComparePolicy lists the fields compared in shadow mode.
func ComparePolicy() *shadow.Policy[Status] {
	return shadow.NewPolicy(
		shadow.Exact("is_following", func(s Status) bool { return s.IsFollowing }),
		shadow.Exact("is_own_profile", func(s Status) bool { return s.IsOwnProfile }),
	)
}
