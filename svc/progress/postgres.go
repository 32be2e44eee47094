package progress

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wigg/datalayer/pkg/pg"
)

const insertEntry = `
INSERT INTO wigg_points (id, user_id, media_id, pct, note, rating, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

// PGLegacyBackend calls get_user_wigg_points.
type PGLegacyBackend struct {
	db pg.DB
}

// NewPGLegacyBackend returns a LegacyBackend on db.
func NewPGLegacyBackend(db pg.DB) *PGLegacyBackend {
	return &PGLegacyBackend{db: db}
}

func (b *PGLegacyBackend) UserWiggPoints(ctx context.Context, userID, mediaID string) ([]Entry, error) {
	entries, err := queryEntries(ctx, b.db,
		`SELECT id::TEXT, pct, note, rating, created_at FROM get_user_wigg_points($1, $2)`,
		userID, mediaID)
	return entries, pg.AdapterError(legacyName, "get_user_wigg_points", err)
}

func (b *PGLegacyBackend) InsertWiggPoint(ctx context.Context, userID, mediaID string, e Entry) error {
	_, err := b.db.Exec(ctx, insertEntry, e.ID.String(), userID, mediaID, e.Pct, e.Note, e.Rating, e.CreatedAt)
	return pg.AdapterError(legacyName, "insert wigg point", err)
}

// PGStore reads the wigg_points table directly.
type PGStore struct {
	db pg.DB
}

// NewPGStore returns a Store on db.
func NewPGStore(db pg.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) ListEntries(ctx context.Context, userID, mediaID string) ([]Entry, error) {
	entries, err := queryEntries(ctx, s.db, `
SELECT id::TEXT, pct, note, rating, created_at
FROM wigg_points
WHERE user_id = $1 AND media_id = $2
ORDER BY pct, created_at`, userID, mediaID)
	return entries, pg.AdapterError(nextName, "list entries", err)
}

func (s *PGStore) AddEntry(ctx context.Context, userID, mediaID string, e Entry) error {
	_, err := s.db.Exec(ctx, insertEntry, e.ID.String(), userID, mediaID, e.Pct, e.Note, e.Rating, e.CreatedAt)
	return pg.AdapterError(nextName, "add entry", err)
}

func queryEntries(ctx context.Context, db pg.DB, sql string, args ...any) ([]Entry, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e  Entry
			id string
		)
		if err := row.Scan(&id, &e.Pct, &e.Note, &e.Rating, &e.CreatedAt); err != nil {
			return Entry{}, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return Entry{}, err
		}
		e.ID = parsed
		return e, nil
	})
}
