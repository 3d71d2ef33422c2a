// Package handler 实现最小的gin控制面：集群状态查询 + 对单个ProcessInstance的pause/resume/stop。
package handler

import (
	"context"
	"time"
)

// ClusterStatus 是GET /status要展示的本机快照
type ClusterStatus struct {
	Host            string
	StartedAt       time.Time
	ActiveProcesses int
}

// ProgressSnapshot 是GET /processes/:id/progress要展示的DAG执行进度
type ProgressSnapshot struct {
	Total          int
	Completed      int
	Running        int
	Failed         int
	Pending        int
	RunningTaskIDs []string
	PendingTaskIDs []string
}

// ProcessController 是handler依赖的最小接口，真正的落地在 pkg/master.Server，
// 这样handler不需要反向依赖 pkg/master
type ProcessController interface {
	Status() ClusterStatus
	Pause(ctx context.Context, processInstanceID int64) error
	Resume(ctx context.Context, processInstanceID int64) error
	Stop(ctx context.Context, processInstanceID int64) error
	Progress(processInstanceID int64) (ProgressSnapshot, bool)
}
