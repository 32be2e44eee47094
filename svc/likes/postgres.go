package likes

import (
	"context"

	"github.com/wigg/datalayer/pkg/pg"
)

// PGLegacyBackend calls the legacy RPC functions installed by the likes migration.
type PGLegacyBackend struct {
	db pg.DB
}

// NewPGLegacyBackend returns a LegacyBackend on db.
func NewPGLegacyBackend(db pg.DB) *PGLegacyBackend {
	return &PGLegacyBackend{db: db}
}

func (b *PGLegacyBackend) LikeCount(ctx context.Context, pointID string) (int, error) {
	var n int
	if err := b.db.QueryRow(ctx, `SELECT get_wigg_point_like_count($1)`, pointID).Scan(&n); err != nil {
		return 0, pg.AdapterError(legacyName, "get_wigg_point_like_count", err)
	}
	return n, nil
}

func (b *PGLegacyBackend) HasLiked(ctx context.Context, pointID, userID string) (bool, error) {
	var liked bool
	if err := b.db.QueryRow(ctx, `SELECT user_liked_wigg_point($1, $2)`, pointID, userID).Scan(&liked); err != nil {
		return false, pg.AdapterError(legacyName, "user_liked_wigg_point", err)
	}
	return liked, nil
}

// InsertLike treats an existing like as success.
func (b *PGLegacyBackend) InsertLike(ctx context.Context, pointID, userID string) error {
	_, err := b.db.Exec(ctx, `INSERT INTO wigg_point_likes (point_id, user_id) VALUES ($1, $2)`, pointID, userID)
	if err != nil && !pg.IsDuplicateKeyError(err) {
		return pg.AdapterError(legacyName, "insert like", err)
	}
	return nil
}

func (b *PGLegacyBackend) DeleteLike(ctx context.Context, pointID, userID string) error {
	_, err := b.db.Exec(ctx, `DELETE FROM wigg_point_likes WHERE point_id = $1 AND user_id = $2`, pointID, userID)
	return pg.AdapterError(legacyName, "delete like", err)
}

const aggregateQuery = `
SELECT count(*)::INTEGER,
       coalesce(bool_or(user_id = $2), false)
FROM wigg_point_likes
WHERE point_id = $1`

// PGStore is the new likes store.
type PGStore struct {
	db pg.DB
}

// NewPGStore returns a Store on db.
func NewPGStore(db pg.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Aggregate(ctx context.Context, pointID, userID string) (Likes, error) {
	var l Likes
	if err := s.db.QueryRow(ctx, aggregateQuery, pointID, userID).Scan(&l.Count, &l.Liked); err != nil {
		return Likes{}, pg.AdapterError(nextName, "aggregate likes", err)
	}
	return l, nil
}

func (s *PGStore) SetLiked(ctx context.Context, pointID, userID string, liked bool) (Likes, error) {
	q := `DELETE FROM wigg_point_likes WHERE point_id = $1 AND user_id = $2`
	if liked {
		q = `INSERT INTO wigg_point_likes (point_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	if _, err := s.db.Exec(ctx, q, pointID, userID); err != nil {
		return Likes{}, pg.AdapterError(nextName, "set liked", err)
	}
	return s.Aggregate(ctx, pointID, userID)
}
