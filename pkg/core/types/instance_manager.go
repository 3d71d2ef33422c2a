package types

import (
	"context"
)

// DagEngineHandle 定义 DagEngine 对外暴露的控制面（对外导出）
// 用于解耦 MasterServer / API 层与 DagEngine 的具体实现
type DagEngineHandle interface {
	// Run 驱动该 ProcessInstance 直至终态，返回时状态已落盘
	Run(ctx context.Context) (ExecutionStatus, error)

	// RequestPause 请求进入 READY_PAUSE（协作式，下一个tick才会生效）
	RequestPause()

	// RequestStop 请求进入 READY_STOP
	RequestStop()

	// ProcessInstanceID 该 DagEngine 驱动的 ProcessInstance ID
	ProcessInstanceID() int64

	// GetProgress 获取当前内存中的任务进度快照，用于状态查询接口
	GetProgress() ProgressSnapshot

	// Context 获取context（用于监听取消信号）
	Context() context.Context
}

// ProgressSnapshot 内存中的任务进度快照（与入库数据无关）
// Running = len(活跃 TaskSupervisor)，Pending = readyToSubmitTaskList 的大小
type ProgressSnapshot struct {
	Total          int      // 总任务数（DAG节点数，不含被剪除的forbidden节点）
	Completed      int      // completeTaskList 大小
	Running        int      // activeTaskSupervisors 大小
	Failed         int      // errorTaskList 大小
	Pending        int      // readyToSubmitTaskList 大小
	RunningTaskIDs []string // 正在执行的Task名称列表
	PendingTaskIDs []string // 待提交的Task名称列表
}
