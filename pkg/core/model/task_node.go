package model

import "github.com/workflow-master/core/pkg/core/types"

// TaskNode 是DAG中的静态节点定义（对外导出）
// name 在其所属DAG内唯一；deps 记录父节点名称列表
type TaskNode struct {
	Name                 string            `json:"name"`
	Type                 string            `json:"type"` // 普通类型或 "SUB_PROCESS"
	Deps                 []string          `json:"deps"`
	MaxRetryTimes        int               `json:"maxRetryTimes"`
	RetryIntervalMinutes int               `json:"retryIntervalMinutes"`
	Priority             types.Priority    `json:"taskInstancePriority"`
	WorkerGroupID         string            `json:"workerGroupId"`
	Params               map[string]string `json:"params"`
	Disabled             bool              `json:"disabled"` // 定义中被禁用，剪枝时进入forbiddenTaskList
}

// Clone 返回TaskNode的浅拷贝，用于冻结到TaskInstance.TaskJSON
func (n *TaskNode) Clone() *TaskNode {
	clone := *n
	clone.Deps = append([]string(nil), n.Deps...)
	clone.Params = make(map[string]string, len(n.Params))
	for k, v := range n.Params {
		clone.Params[k] = v
	}
	return &clone
}

// EffectivePriority 返回优先级，未设置时默认为MEDIUM
func (n *TaskNode) EffectivePriority() types.Priority {
	if n.Priority == "" {
		return types.PriorityMedium
	}
	return n.Priority
}
