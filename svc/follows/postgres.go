package follows

import (
	"context"

	"github.com/wigg/datalayer/pkg/pg"
)

// PGStore is the new follow store on the user_follows table.
type PGStore struct {
	db pg.DB
}

// NewPGStore returns a Store on db.
func NewPGStore(db pg.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_follows WHERE follower_id = $1 AND following_id = $2)`,
		followerID, targetID,
	).Scan(&ok)
	if err != nil {
		return false, pg.AdapterError(nextName, "is following", err)
	}
	return ok, nil
}

func (s *PGStore) SetFollowing(ctx context.Context, followerID, targetID string, follow bool) (bool, error) {
	q := `DELETE FROM user_follows WHERE follower_id = $1 AND following_id = $2`
	if follow {
		q = `INSERT INTO user_follows (follower_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	}
	if _, err := s.db.Exec(ctx, q, followerID, targetID); err != nil {
		return false, pg.AdapterError(nextName, "set following", err)
	}
	return follow, nil
}
