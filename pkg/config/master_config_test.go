package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile_FallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Master.Exec.Threads)
	assert.Equal(t, 20, cfg.Master.Exec.Task.Threads)
	assert.Equal(t, 10, cfg.Master.Heartbeat.Interval)
	assert.Equal(t, "sqlite", cfg.Storage.Dialect)
	assert.Equal(t, ":8088", cfg.API.Listen)
	assert.Equal(t, "/workflow-master", cfg.Coordination.Namespace)
	assert.Equal(t, 3, cfg.Coordination.WarnTimesFailover)
}

func TestLoad_ParsesYAMLAndKeepsExplicitValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.yaml")
	content := `
master:
  exec:
    threads: 50
    task:
      threads: 5
  heartbeat:
    interval: 30
coordination:
  servers: ["zk1:2181", "zk2:2181"]
  namespace: "/custom"
  host: "10.0.0.1:5678"
storage:
  dialect: postgres
  dsn: "postgres://localhost/master"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Master.Exec.Threads)
	assert.Equal(t, 5, cfg.Master.Exec.Task.Threads)
	assert.Equal(t, 30, cfg.Master.Heartbeat.Interval)
	assert.Equal(t, []string{"zk1:2181", "zk2:2181"}, cfg.Coordination.Servers)
	assert.Equal(t, "/custom", cfg.Coordination.Namespace)
	assert.Equal(t, "postgres", cfg.Storage.Dialect)
	assert.Equal(t, "postgres://localhost/master", cfg.Storage.DSN)

	// ApplyDefaults仍然应该补齐未出现在YAML中的字段
	assert.Equal(t, 0.9, cfg.Master.Task.Resource.CPU)
	assert.Equal(t, ":8088", cfg.API.Listen)
}

func TestHeartbeatInterval_ConvertsSecondsToDuration(t *testing.T) {
	cfg := &MasterConfig{}
	cfg.Master.Heartbeat.Interval = 15
	assert.Equal(t, 15_000_000_000, int(cfg.HeartbeatInterval()))
}
