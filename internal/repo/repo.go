package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"infinity/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// PutSnapshot upserts a snapshot payload by key.
func (r Repo) PutSnapshot(ctx context.Context, key string, data []byte, updatedAt string) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO snapshots(key,payload_json,updated_at) VALUES (?,?,?)
ON CONFLICT(key) DO UPDATE SET payload_json=excluded.payload_json, updated_at=excluded.updated_at`,
		key, string(data), updatedAt)
	return errors.Wrapf(err, "put snapshot %s", key)
}

func (r Repo) GetSnapshot(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := r.DB.QueryRowContext(ctx, `SELECT payload_json FROM snapshots WHERE key=?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "snapshot %s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get snapshot %s", key)
	}
	return []byte(payload), nil
}

func (r Repo) AppendChange(ctx context.Context, e domain.ChangeLogEntry) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO change_log(id,table_id,ts,actor_id,summary) VALUES (?,?,?,?,?)`,
		e.ID, e.TableID, e.TS, e.ActorID, e.Summary)
	return errors.Wrap(err, "append change log")
}

// ListChangeLog returns the change log of a table, oldest first.
func (r Repo) ListChangeLog(ctx context.Context, tableID string) ([]domain.ChangeLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,table_id,ts,actor_id,summary FROM change_log WHERE table_id=? ORDER BY ts ASC, rowid ASC`, tableID)
	if err != nil {
		return nil, errors.Wrap(err, "list change log")
	}
	defer rows.Close()
	var res []domain.ChangeLogEntry
	for rows.Next() {
		var e domain.ChangeLogEntry
		if err := rows.Scan(&e.ID, &e.TableID, &e.TS, &e.ActorID, &e.Summary); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// InsertReview stores a decision. A run can only be decided once.
func (r Repo) InsertReview(ctx context.Context, tx *sql.Tx, rec domain.ReviewRecord) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO reviews(run_id,decision,reviewer,feedback,reviewed_at) VALUES (?,?,?,?,?)`,
		rec.RunID, string(rec.Decision), rec.Reviewer, nullable(rec.Feedback), rec.ReviewedAt)
	return errors.Wrapf(err, "insert review %s", rec.RunID)
}

// ListReviews returns review records, newest first. limit <= 0 returns all.
func (r Repo) ListReviews(ctx context.Context, limit int) ([]domain.ReviewRecord, error) {
	query := `SELECT run_id,decision,reviewer,COALESCE(feedback,''),reviewed_at FROM reviews ORDER BY reviewed_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	defer rows.Close()
	var res []domain.ReviewRecord
	for rows.Next() {
		var rec domain.ReviewRecord
		var decision string
		if err := rows.Scan(&rec.RunID, &decision, &rec.Reviewer, &rec.Feedback, &rec.ReviewedAt); err != nil {
			return nil, err
		}
		rec.Decision = domain.ReviewStatus(decision)
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (r Repo) InsertCommit(ctx context.Context, tx *sql.Tx, c domain.Commit, createdAt string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO commits(hash,repo,branch,message,description,author,time_label,created_at) VALUES (?,?,?,?,?,?,?,?)`,
		c.Hash, c.Repo, c.Branch, c.Message, nullable(c.Description), c.Author, c.Time, createdAt)
	return errors.Wrapf(err, "insert commit %s", c.Hash)
}

// ListCommits returns persisted shell commits, newest first.
func (r Repo) ListCommits(ctx context.Context) ([]domain.Commit, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT hash,repo,branch,message,COALESCE(description,''),author,time_label FROM commits ORDER BY seq DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list commits")
	}
	defer rows.Close()
	var res []domain.Commit
	for rows.Next() {
		var c domain.Commit
		if err := rows.Scan(&c.Hash, &c.Repo, &c.Branch, &c.Message, &c.Description, &c.Author, &c.Time); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// EventFilter narrows LatestEvents. Zero fields match everything.
type EventFilter struct {
	Type       string
	EntityKind string
	EntityID   string
	// Before returns only events with a smaller id.
	Before int64
}

// LatestEvents returns events newest first.
func (r Repo) LatestEvents(ctx context.Context, limit int, f EventFilter) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	clauses := []string{"1=1"}
	var args []any
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.EntityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, f.EntityID)
	}
	if f.Before > 0 {
		clauses = append(clauses, "id<?")
		args = append(args, f.Before)
	}
	where := "WHERE " + strings.Join(clauses, " AND ")
	query := fmt.Sprintf(`SELECT id,ts,type,entity_kind,COALESCE(entity_id,''),actor_id,payload_json FROM events %s ORDER BY id DESC LIMIT ?`, where)
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list events")
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var payload string
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, errors.Wrapf(err, "decode event %d payload", e.ID)
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
