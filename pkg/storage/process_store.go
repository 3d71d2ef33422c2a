// Package storage 定义 spec §6 描述的 ProcessStore 能力，具体实现见 sqlite/mysql/postgres 子包。
package storage

import (
	"context"

	"github.com/workflow-master/core/pkg/core/model"
)

// ProcessStore 是 DagEngine/ClusterController 依赖的关系存储接口（对外导出）
// 对应 spec §6 "ProcessStore operations required"
type ProcessStore interface {
	// FindProcessInstanceByID 按ID查询ProcessInstance
	FindProcessInstanceByID(ctx context.Context, id int64) (*model.ProcessInstance, error)
	// SaveProcessInstance 插入一条新ProcessInstance，返回分配的ID
	SaveProcessInstance(ctx context.Context, pi *model.ProcessInstance) (int64, error)
	// UpdateProcessInstance 更新已存在的ProcessInstance（按ID）
	UpdateProcessInstance(ctx context.Context, pi *model.ProcessInstance) error

	// FindValidTaskListByProcessID 查询某ProcessInstance下所有flag=YES的TaskInstance
	FindValidTaskListByProcessID(ctx context.Context, processInstanceID int64) ([]*model.TaskInstance, error)
	// FindTaskInstanceByID 按ID查询TaskInstance
	FindTaskInstanceByID(ctx context.Context, id int64) (*model.TaskInstance, error)
	// SaveTaskInstance 插入一条新TaskInstance，返回分配的ID
	SaveTaskInstance(ctx context.Context, ti *model.TaskInstance) (int64, error)
	// UpdateTaskInstance 更新已存在的TaskInstance（按ID）
	UpdateTaskInstance(ctx context.Context, ti *model.TaskInstance) error
	// MarkTaskInstanceFlagNo 把旧的TaskInstance标记为flag=NO（重试/回补新开一条时调用）
	MarkTaskInstanceFlagNo(ctx context.Context, id int64) error

	// QueryNeedFailoverProcessInstances 查询host匹配、状态非终态的ProcessInstance；host为空时查询所有host非空的
	QueryNeedFailoverProcessInstances(ctx context.Context, host string) ([]*model.ProcessInstance, error)
	// QueryNeedFailoverTaskInstances 查询host匹配、需要容错的TaskInstance；host为空时查询所有
	QueryNeedFailoverTaskInstances(ctx context.Context, host string) ([]*model.TaskInstance, error)
	// ProcessNeedFailoverProcessInstances 清空host并把状态置为可重新调度，落盘一条Command
	ProcessNeedFailoverProcessInstances(ctx context.Context, pi *model.ProcessInstance) error

	// SaveCommand 落盘一条Command供Scheduler/本Master自身消费
	SaveCommand(ctx context.Context, cmd *model.Command) (int64, error)
	// CreateRecoveryWaitingThreadCommand 为WAITING_THREAD状态的ProcessInstance创建恢复Command
	CreateRecoveryWaitingThreadCommand(ctx context.Context, existing *model.Command, pi *model.ProcessInstance) error
	// PollCommands 按create_time升序取出最多limit条待消费的Command
	PollCommands(ctx context.Context, limit int) ([]*model.Command, error)
	// DeleteCommand 消费完成后删除一条Command
	DeleteCommand(ctx context.Context, id int64) error

	// Close 释放底层连接
	Close() error
}
