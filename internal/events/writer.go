package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
)

// Event types written by the engine.
const (
	TableSaved      = "table.saved"
	TableLoaded     = "table.loaded"
	RunLaunched     = "run.launched"
	RunRetried      = "run.retried"
	RunReviewed     = "run.reviewed"
	ScheduleToggled = "schedule.toggled"
	ScheduleCreated = "schedule.created"
	CommitCreated   = "shell.committed"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	if w.Now == nil {
		w.Now = time.Now
	}
	ts := w.Now().UTC().Format(time.RFC3339)
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal event payload")
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		ts, evtType, entityKind, nullable(entityID), actorID, string(data))
	return errors.Wrapf(err, "append event %s", evtType)
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
