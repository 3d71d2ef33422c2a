// Package storage 按配置中的方言名拼装具体的 ProcessStore 实现，供 cmd/master 组装依赖时使用。
package storage

import (
	"fmt"

	"github.com/workflow-master/core/pkg/storage"
	"github.com/workflow-master/core/pkg/storage/mysql"
	"github.com/workflow-master/core/pkg/storage/postgres"
	"github.com/workflow-master/core/pkg/storage/sqlite"
)

// Config 描述如何连接ProcessStore（对外导出）
type Config struct {
	Dialect string `yaml:"dialect"` // sqlite | mysql | postgres
	DSN     string `yaml:"dsn"`
}

// Open 按Config中的方言打开对应的ProcessStore实现
func Open(cfg Config) (storage.ProcessStore, error) {
	switch cfg.Dialect {
	case "", "sqlite":
		return sqlite.Open(cfg.DSN)
	case "mysql":
		return mysql.Open(cfg.DSN)
	case "postgres", "postgresql":
		return postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("不支持的存储方言: %q", cfg.Dialect)
	}
}
