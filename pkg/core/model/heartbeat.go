package model

import "time"

// Heartbeat 是写入自身znode的存活信息（对外导出）
type Heartbeat struct {
	Host          string    `json:"host"`
	Pid           int       `json:"pid"`
	CPUPercent    float64   `json:"cpuPercent"`
	MemPercent    float64   `json:"memPercent"`
	LoadAvg       float64   `json:"loadAvg"`
	StartTime     time.Time `json:"startTime"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
}

// DeadServerMarker 是某个Master/Worker被观测到消失后落盘的持久标记
type DeadServerMarker struct {
	Type       string    `json:"type"` // "MASTER" | "WORKER"
	Host       string    `json:"host"`
	RecordedAt time.Time `json:"recordedAt"`
}
