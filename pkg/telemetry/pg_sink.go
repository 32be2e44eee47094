package telemetry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/wigg/datalayer/pkg/pg"
)

const insertEventSQL = `
INSERT INTO shadow_divergences (id, kind, entity_key, entity_id, field, legacy_value, new_value, payload, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO NOTHING`

// PGSink persists events into the shadow_divergences table.
type PGSink struct {
	db pg.DB
}

// NewPGSink returns a sink writing through db.
func NewPGSink(db pg.DB) *PGSink {
	return &PGSink{db: db}
}

// Write implements Sink. The field, legacy and new payload entries are
// lifted into their own columns when present.
func (s *PGSink) Write(ctx context.Context, e Event) error {
	field, _ := e.Payload["field"].(string)

	legacy, err := jsonColumn(e.Payload, "legacy")
	if err != nil {
		return errors.Join(ErrSinkFailed, err)
	}
	next, err := jsonColumn(e.Payload, "new")
	if err != nil {
		return errors.Join(ErrSinkFailed, err)
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return errors.Join(ErrSinkFailed, err)
	}
	if e.Payload == nil {
		payload = []byte("{}")
	}

	_, err = s.db.Exec(ctx, insertEventSQL,
		e.ID, string(e.Kind), e.EntityKey, e.EntityID, field,
		legacy, next, payload, e.Timestamp,
	)
	if err != nil {
		return errors.Join(ErrSinkFailed, err)
	}
	return nil
}

func jsonColumn(payload map[string]any, key string) ([]byte, error) {
	v, ok := payload[key]
	if !ok {
		return nil, nil
	}
	return json.Marshal(v)
}
