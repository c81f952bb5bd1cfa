package repo_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infinity/internal/db"
	"infinity/internal/domain"
	"infinity/internal/events"
	"infinity/internal/migrate"
	"infinity/internal/repo"
)

func openRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(context.Background(), conn))
	return repo.Repo{DB: conn}
}

func inTx(t *testing.T, r repo.Repo, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := r.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

func TestSnapshotUpsert(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()

	_, err := r.GetSnapshot(ctx, "decisionTableWIP")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.PutSnapshot(ctx, "decisionTableWIP", []byte(`{"title":"a"}`), "2024-01-01T00:00:00Z"))
	require.NoError(t, r.PutSnapshot(ctx, "decisionTableWIP", []byte(`{"title":"b"}`), "2024-01-01T00:01:00Z"))
	data, err := r.GetSnapshot(ctx, "decisionTableWIP")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"b"}`, string(data))
}

func TestChangeLogOrder(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	require.NoError(t, r.AppendChange(ctx, domain.ChangeLogEntry{ID: "c1", TableID: "t", TS: "2024-01-01T00:00:00Z", ActorID: "u", Summary: "first"}))
	require.NoError(t, r.AppendChange(ctx, domain.ChangeLogEntry{ID: "c2", TableID: "t", TS: "2024-01-01T00:00:00Z", ActorID: "u", Summary: "second"}))
	require.NoError(t, r.AppendChange(ctx, domain.ChangeLogEntry{ID: "c3", TableID: "other", TS: "2024-01-01T00:00:00Z", ActorID: "u", Summary: "x"}))

	entries, err := r.ListChangeLog(ctx, "t")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Summary)
	assert.Equal(t, "second", entries[1].Summary)
}

func TestReviewsAreDecidedOnce(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	rec := domain.ReviewRecord{RunID: "r3", Decision: domain.ReviewApproved, Reviewer: "alice", ReviewedAt: "2024-01-01T00:00:00Z"}
	inTx(t, r, func(tx *sql.Tx) error { return r.InsertReview(ctx, tx, rec) })

	tx, err := r.DB.Begin()
	require.NoError(t, err)
	rec.Decision = domain.ReviewDenied
	assert.Error(t, r.InsertReview(ctx, tx, rec))
	require.NoError(t, tx.Rollback())

	inTx(t, r, func(tx *sql.Tx) error {
		return r.InsertReview(ctx, tx, domain.ReviewRecord{RunID: "r4", Decision: domain.ReviewDenied, Reviewer: "bob", Feedback: "flaky", ReviewedAt: "2024-01-02T00:00:00Z"})
	})
	recs, err := r.ListReviews(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "r4", recs[0].RunID)
	assert.Equal(t, "flaky", recs[0].Feedback)
	assert.Equal(t, domain.ReviewApproved, recs[1].Decision)

	recs, err = r.ListReviews(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestCommitsNewestFirst(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	for _, h := range []string{"aaaaaaa", "bbbbbbb"} {
		c := domain.Commit{Hash: h, Message: "m " + h, Author: "me", Time: "just now", Branch: "main", Repo: "Likely-To-Pay-Model"}
		inTx(t, r, func(tx *sql.Tx) error { return r.InsertCommit(ctx, tx, c, "2024-01-01T00:00:00Z") })
	}
	commits, err := r.ListCommits(ctx)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "bbbbbbb", commits[0].Hash)
	assert.Equal(t, "", commits[0].Description)
}

func TestLatestEventsFilter(t *testing.T) {
	r := openRepo(t)
	ctx := context.Background()
	w := events.Writer{}
	inTx(t, r, func(tx *sql.Tx) error {
		if err := w.Append(ctx, tx, events.RunLaunched, "run", "r9", "alice", events.EventPayload{"pipeline": "daily_ingest"}); err != nil {
			return err
		}
		return w.Append(ctx, tx, events.TableSaved, "table", "", "bob", nil)
	})

	all, err := r.LatestEvents(ctx, 10, repo.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, events.TableSaved, all[0].Type)
	assert.Equal(t, "", all[0].EntityID)
	assert.Empty(t, all[0].Payload)

	runs, err := r.LatestEvents(ctx, 10, repo.EventFilter{EntityKind: "run"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "daily_ingest", runs[0].Payload["pipeline"])

	older, err := r.LatestEvents(ctx, 10, repo.EventFilter{Before: all[0].ID})
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "r9", older[0].EntityID)
}
