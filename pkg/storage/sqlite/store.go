package sqlite

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/workflow-master/core/pkg/storage/sqlstore"
)

// Open 打开一个SQLite ProcessStore，dsn形如 "file:/data/master.db?_journal=WAL" 或 ":memory:"
func Open(dsn string) (*sqlstore.Store, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开SQLite连接失败: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite3驱动不支持多写连接并发
	store, err := sqlstore.New(db, NewSQLiteDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}
