package progress

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wigg/datalayer/pkg/coexist"
	"github.com/wigg/datalayer/pkg/datasource"
	"github.com/wigg/datalayer/pkg/shadow"
)

// EntityKey identifies per-user progress points in flags and telemetry.
const EntityKey = "user-wiggs"

// DefaultT2GPct is the legacy time-to-good estimate when no entry is rated.
const DefaultT2GPct = 35.0

// MaxRating is the highest rating an entry can carry.
const MaxRating = 3

// Entry is one progress point a user marked on a title.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Pct       float64   `json:"pct"`
	Note      string    `json:"note,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Progress is the caller's points on one title, sorted by Pct.
type Progress struct {
	Entries        []Entry  `json:"entries"`
	T2GEstimatePct *float64 `json:"t2g_estimate_pct,omitempty"`
}

// AddEntry records a new progress point.
type AddEntry struct {
	Pct    float64 `json:"pct"`
	Note   string  `json:"note,omitempty"`
	Rating int     `json:"rating"`
}

// LegacyBackend is the legacy RPC surface.
type LegacyBackend interface {
	UserWiggPoints(ctx context.Context, userID, mediaID string) ([]Entry, error)
	InsertWiggPoint(ctx context.Context, userID, mediaID string, e Entry) error
}

// Store is the storage behind the new data layer.
type Store interface {
	ListEntries(ctx context.Context, userID, mediaID string) ([]Entry, error)
	AddEntry(ctx context.Context, userID, mediaID string, e Entry) error
}

// NewDataLayer returns the coexistence factory for progress points.
func NewDataLayer(legacy, next datasource.Adapter[Progress], opts ...coexist.Option) *coexist.Factory[Progress, AddEntry] {
	return coexist.New[Progress, AddEntry](EntityKey, legacy, next, opts...)
}

// ComparePolicy lists the fields compared in shadow mode. Entries compare
// as an unordered set of ids.
func ComparePolicy() *shadow.Policy[Progress] {
	return shadow.NewPolicy(
		shadow.Set("entries", func(p Progress) []uuid.UUID {
			ids := make([]uuid.UUID, len(p.Entries))
			for i, e := range p.Entries {
				ids[i] = e.ID
			}
			return ids
		}),
		shadow.OptionalNumeric("t2g_estimate_pct", func(p Progress) *float64 { return p.T2GEstimatePct }, 0.5),
	)
}

// SortEntries orders entries by Pct, then by creation time.
func SortEntries(entries []Entry) {
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(a.Pct, b.Pct); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// FirstGood returns the Pct of the first sorted entry rated at least 1.
func FirstGood(entries []Entry) (float64, bool) {
	for _, e := range entries {
		if e.Rating >= 1 {
			return e.Pct, true
		}
	}
	return 0, false
}

func (a AddEntry) validate() error {
	switch {
	case a.Pct < 0 || a.Pct > 100:
		return ErrInvalidPct
	case a.Rating < 0 || a.Rating > MaxRating:
		return ErrInvalidRating
	}
	return nil
}
