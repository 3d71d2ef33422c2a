package mysql

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/go-sql-driver/mysql"

	"github.com/workflow-master/core/pkg/storage/sqlstore"
)

// Open 打开一个MySQL ProcessStore，dsn形如 "user:pass@tcp(host:3306)/dbname"
// 自动补上parseTime=true，否则DATETIME列会以[]byte而不是time.Time形式回来
func Open(dsn string) (*sqlstore.Store, error) {
	dsn = ensureParseTime(dsn)
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开MySQL连接失败: %w", err)
	}
	store, err := sqlstore.New(db, NewMySQLDialect())
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func ensureParseTime(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}
