package sqlstore_test

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage/sqlite"
	"github.com/workflow-master/core/pkg/storage/sqlstore"
)

func newSQLiteStore(t *testing.T) *sqlstore.Store {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	store, err := sqlstore.New(db, sqlite.NewSQLiteDialect())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveProcessInstance_SQLite_UsesLastInsertID(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	pi := &model.ProcessInstance{State: types.RunningExecution, CommandType: model.CommandTypeStart}
	id, err := store.SaveProcessInstance(ctx, pi)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))
	require.Equal(t, id, pi.ID)

	got, err := store.FindProcessInstanceByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
}

func TestSaveTaskInstance_SQLite_UsesLastInsertID(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	ti := &model.TaskInstance{Name: "t1", State: types.SubmittedSuccess, Flag: types.FlagYes}
	id, err := store.SaveTaskInstance(ctx, ti)
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	got, err := store.FindTaskInstanceByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "t1", got.Name)
}
