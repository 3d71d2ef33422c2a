// Package supervisor 负责单个TaskInstance的生命周期：下发给Worker、等待结果、响应kill。
// DagEngine只跟Submit/Kill/TaskInstance这个小接口打交道，具体下发机制（watermill）和
// 子流程递归都藏在各自的Supervisor实现里。
package supervisor

import (
	"context"

	"github.com/workflow-master/core/pkg/core/model"
)

// Completion 是一次Submit的终态结果
type Completion struct {
	TaskInstance *model.TaskInstance
	Err          error
}

// TaskSupervisor 是DagEngine驱动单个任务的最小接口（对外导出）
type TaskSupervisor interface {
	// Submit 启动任务，返回的channel在任务进入终态后恰好收到一个值并关闭
	Submit(ctx context.Context) <-chan Completion
	// Kill 请求取消正在运行的任务，是否已完成由Submit的返回channel体现
	Kill() error
	// TaskInstance 返回当前持有的TaskInstance快照
	TaskInstance() *model.TaskInstance
}

// ProgressSink 是上报任务状态迁移事件的最小接口，真正的落地在 pkg/progress
type ProgressSink interface {
	Publish(taskID, instanceID string, eventType string, payload interface{})
}
