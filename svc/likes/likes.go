package likes

import (
	"context"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/shadow"
)

// EntityKey identifies wigg point likes in flags and telemetry.
const EntityKey = "wigg-likes"

// Likes is the like summary of one wigg point as seen by the caller.
type Likes struct {
	Liked bool `json:"liked"`
	Count int  `json:"count"`
}

// Toggle sets whether the caller likes the point.
type Toggle struct {
	Liked bool `json:"liked"`
}

// LegacyBackend is the RPC surface of the legacy platform.
type LegacyBackend interface {
	LikeCount(ctx context.Context, pointID string) (int, error)
	HasLiked(ctx context.Context, pointID, userID string) (bool, error)
	InsertLike(ctx context.Context, pointID, userID string) error
	DeleteLike(ctx context.Context, pointID, userID string) error
}

// Store is the storage behind the new data layer.
type Store interface {
	Aggregate(ctx context.Context, pointID, userID string) (Likes, error)
	SetLiked(ctx context.Context, pointID, userID string, liked bool) (Likes, error)
}

// NewDataLayer returns the coexistence factory for likes.
func NewDataLayer(legacy, next datasource.Adapter[Likes], opts ...coexist.Option) *coexist.Factory[Likes, Toggle] {
	return coexist.New[Likes, Toggle](EntityKey, legacy, next, opts...)
}

// ComparePolicy lists the fields compared in shadow mode.
func ComparePolicy() *shadow.Policy[Likes] {
	return shadow.NewPolicy(
		shadow.Exact("liked", func(l Likes) bool { return l.Liked }),
		shadow.Numeric("count", func(l Likes) float64 { return float64(l.Count) }, 0),
	)
}
