package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MasterConfig 是master进程的总配置，嵌套结构对应YAML里的分组（对外导出）
type MasterConfig struct {
	Master struct {
		Exec struct {
			Threads int `yaml:"threads"` // 进程实例并发上限，默认100
			Task    struct {
				Threads int `yaml:"threads"` // 单个DagEngine内任务并发上限，默认20
			} `yaml:"task"`
		} `yaml:"exec"`
		Heartbeat struct {
			Interval int `yaml:"interval"` // 心跳间隔，单位秒，默认10
		} `yaml:"heartbeat"`
		Properties struct {
			Path string `yaml:"path"`
		} `yaml:"properties"`
		Task struct {
			Resource struct {
				CPU float64 `yaml:"cpu"` // 准入控制CPU占用阈值，0~1
				Mem float64 `yaml:"mem"` // 准入控制内存占用阈值，0~1
			} `yaml:"resource"`
		} `yaml:"task"`
	} `yaml:"master"`

	Coordination struct {
		Servers           []string `yaml:"servers"`
		Namespace         string   `yaml:"namespace"`
		Host              string   `yaml:"host"`
		WarnTimesFailover int      `yaml:"warn_times_failover"` // 对应DOLPHINSCHEDULER_WARN_TIMES_FAILOVER
	} `yaml:"coordination"`

	Storage struct {
		Dialect string `yaml:"dialect"`
		DSN     string `yaml:"dsn"`
	} `yaml:"storage"`

	Alert struct {
		Email *struct {
			SMTPHost string   `yaml:"smtp_host"`
			SMTPPort int      `yaml:"smtp_port"`
			Username string   `yaml:"username"`
			Password string   `yaml:"password"`
			From     string   `yaml:"from"`
			To       []string `yaml:"to"`
		} `yaml:"email"`
		Webhook *struct {
			URL string `yaml:"url"`
		} `yaml:"webhook"`
	} `yaml:"alert"`

	Producer struct {
		CronEnabled bool `yaml:"cron_enabled"`
	} `yaml:"producer"`

	API struct {
		Listen string `yaml:"listen"` // gin监听地址，如 ":8088"
	} `yaml:"api"`
}

// Load 从path加载YAML配置，文件不存在时回落到内置默认值
func Load(path string) (*MasterConfig, error) {
	cfg := &MasterConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件%q失败: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件%q失败: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults 填充未设置字段的默认值，与spec约定的默认项保持一致
func (c *MasterConfig) ApplyDefaults() {
	if c.Master.Exec.Threads <= 0 {
		c.Master.Exec.Threads = 100
	}
	if c.Master.Exec.Task.Threads <= 0 {
		c.Master.Exec.Task.Threads = 20
	}
	if c.Master.Heartbeat.Interval <= 0 {
		c.Master.Heartbeat.Interval = 10
	}
	if c.Master.Task.Resource.CPU <= 0 {
		c.Master.Task.Resource.CPU = 0.9
	}
	if c.Master.Task.Resource.Mem <= 0 {
		c.Master.Task.Resource.Mem = 0.9
	}
	if c.Coordination.Namespace == "" {
		c.Coordination.Namespace = "/workflow-master"
	}
	if c.Coordination.WarnTimesFailover <= 0 {
		c.Coordination.WarnTimesFailover = 3
	}
	if c.Storage.Dialect == "" {
		c.Storage.Dialect = "sqlite"
	}
	if c.API.Listen == "" {
		c.API.Listen = ":8088"
	}
}

// HeartbeatInterval 心跳间隔转为time.Duration
func (c *MasterConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.Master.Heartbeat.Interval) * time.Second
}
