package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/storage"
)

// sqliteTestDialect 是 pkg/storage/sqlite.SQLiteDialect 的同包副本，
// 仅用于本测试：直接引用 pkg/storage/sqlite 会因为该包反向依赖
// pkg/storage/sqlstore 而在内部测试（package sqlstore）中构成import cycle。
type sqliteTestDialect struct{}

func (d *sqliteTestDialect) Name() string { return "sqlite" }

func (d *sqliteTestDialect) Placeholder(index int) string { return "?" }

func (d *sqliteTestDialect) UpsertSQL(tableName string, columns []string, conflictColumn string, updateColumns []string) string {
	namedPlaceholders := make([]string, len(columns))
	for i, col := range columns {
		namedPlaceholders[i] = ":" + col
	}
	return fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(namedPlaceholders, ", "),
	)
}

func (d *sqliteTestDialect) CreateTableSQL(schema string) string { return schema }

func (d *sqliteTestDialect) ConfigureDB() []string {
	return []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=30000;",
		"PRAGMA wal_autocheckpoint=1000;",
		"PRAGMA synchronous=NORMAL;",
	}
}

func (d *sqliteTestDialect) AutoIncrementKeyword() string { return "INTEGER PRIMARY KEY AUTOINCREMENT" }

func (d *sqliteTestDialect) BooleanType() string { return "INTEGER" }

func (d *sqliteTestDialect) TextType() string { return "TEXT" }

func (d *sqliteTestDialect) TimestampType() string { return "DATETIME" }

func (d *sqliteTestDialect) FloatType() string { return "REAL" }

var _ storage.Dialect = (*sqliteTestDialect)(nil)

func TestNamedInsertReturningID_NonPostgresDialectUsesLastInsertId(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	store, err := New(db, &sqliteTestDialect{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.Equal(t, "sqlite", store.dialect.Name())

	insert := `INSERT INTO command (process_definition_id, command_type, create_time)
		VALUES (:process_definition_id, :command_type, :create_time)`
	row := map[string]interface{}{"process_definition_id": 7, "command_type": "START_PROCESS", "create_time": time.Now()}
	id, err := store.namedInsertReturningID(context.Background(), insert, row)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	id, err = store.namedInsertReturningID(context.Background(), insert, row)
	require.NoError(t, err)
	require.Equal(t, int64(2), id)
}
