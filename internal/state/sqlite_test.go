package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leaplineage/internal/lineage"
	"github.com/leapstack-labs/leaplineage/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Migrate())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func analyze(t *testing.T, sql string) *lineage.Result {
	t.Helper()
	result, err := lineage.NewAnalyzer().Analyze(sql)
	require.NoError(t, err)
	return result
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpen(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	assert.ErrorIs(t, store.Migrate(), ErrStoreNotOpen)
	_, err := store.SaveRun(ctx, "x.sql", analyze(t, "SELECT a FROM T"))
	assert.ErrorIs(t, err, ErrStoreNotOpen)
	_, err = store.ListRuns(ctx, 10)
	assert.ErrorIs(t, err, ErrStoreNotOpen)
	_, err = store.GetRun(ctx, "id")
	assert.ErrorIs(t, err, ErrStoreNotOpen)
	_, err = store.TraceUpstream(ctx, "id", "a")
	assert.ErrorIs(t, err, ErrStoreNotOpen)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Idempotent.
	require.NoError(t, store.Migrate())

	for _, table := range []string{"runs", "run_nodes", "run_edges", "run_errors"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if assert.NoError(t, err, "table %s", table) {
			_ = rows.Close()
		}
	}
}

func TestSQLiteStore_SaveAndGetRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	result := analyze(t, "SELEC x; WITH c AS (SELECT a, b FROM T) SELECT a + b AS total FROM c")

	run, err := store.SaveRun(ctx, "report.sql", result)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "report.sql", run.Source)
	assert.Equal(t, len(result.Nodes), run.NodeCount)
	assert.Equal(t, len(result.Edges), run.EdgeCount)
	assert.Equal(t, 1, run.ErrorCount)
	assert.WithinDuration(t, time.Now(), run.CreatedAt, time.Minute)

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.CreatedAt, got.CreatedAt)
	require.NotNil(t, got.Result)
	assert.Equal(t, result.Nodes, got.Result.Nodes)
	assert.Equal(t, result.Edges, got.Result.Edges)
	assert.Equal(t, result.Errors, got.Result.Errors)
}

func TestSQLiteStore_GetRunNotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for _, source := range []string{"a.sql", "b.sql", "c.sql"} {
		run, err := store.SaveRun(ctx, source, analyze(t, "SELECT a FROM T"))
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"all", 0, []string{ids[2], ids[1], ids[0]}},
		{"limited", 2, []string{ids[2], ids[1]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.ListRuns(ctx, tt.limit)
			require.NoError(t, err)

			got := make([]string, len(runs))
			for i, r := range runs {
				got[i] = r.ID
				assert.Nil(t, r.Result)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLiteStore_DeleteRun(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run, err := store.SaveRun(ctx, "a.sql", analyze(t, "SELECT a FROM T"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteRun(ctx, run.ID))
	_, err = store.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, store.DeleteRun(ctx, run.ID), ErrRunNotFound)

	var count int
	require.NoError(t, store.db.Get(&count, "SELECT COUNT(*) FROM run_edges"))
	assert.Equal(t, 0, count)
}

func TestSQLiteStore_Trace(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	result := analyze(t, `WITH c AS (SELECT a, b FROM T)
SELECT a + b AS total FROM c;
SELECT x FROM S`)

	run, err := store.SaveRun(ctx, "trace.sql", result)
	require.NoError(t, err)

	up, err := store.TraceUpstream(ctx, run.ID, "total")
	require.NoError(t, err)
	assert.Equal(t, []TraceResult{
		{NodeID: "c.a", Depth: 1},
		{NodeID: "c.b", Depth: 1},
		{NodeID: "T.a", Depth: 2},
		{NodeID: "T.b", Depth: 2},
	}, up)

	down, err := store.TraceDownstream(ctx, run.ID, "T.a")
	require.NoError(t, err)
	assert.Equal(t, []TraceResult{
		{NodeID: "c.a", Depth: 1},
		{NodeID: "total", Depth: 2},
	}, down)

	none, err := store.TraceUpstream(ctx, run.ID, "S.x")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_TraceCycle(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	result := analyze(t, "UPDATE T SET a = b; UPDATE T SET b = a")

	run, err := store.SaveRun(ctx, "cycle.sql", result)
	require.NoError(t, err)

	up, err := store.TraceUpstream(ctx, run.ID, "T.a")
	require.NoError(t, err)
	assert.Equal(t, []TraceResult{{NodeID: "T.b", Depth: 1}}, up)
}

func TestSQLiteStore_TraceSelfEdge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	result := analyze(t, "UPDATE T SET a = a + b")

	run, err := store.SaveRun(ctx, "self.sql", result)
	require.NoError(t, err)

	up, err := store.TraceUpstream(ctx, run.ID, "T.a")
	require.NoError(t, err)
	assert.Equal(t, []TraceResult{{NodeID: "T.b", Depth: 1}}, up)

	down, err := store.TraceDownstream(ctx, run.ID, "T.a")
	require.NoError(t, err)
	assert.Empty(t, down)
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	run, err := store.SaveRun(ctx, "a.sql", analyze(t, "SELECT a FROM T"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.sql", got.Source)
}
