package model

import "time"

// Command 持久化的"(重新)启动某个ProcessInstance"请求，由Scheduler消费（对外导出）
// recoveryStartNodeIds/startNodeNames 用于切片DAG；complementData* 用于回补模式
type Command struct {
	ID                      int64     `db:"id" json:"id"`
	ProcessDefinitionID     int64     `db:"process_definition_id" json:"processDefinitionId"`
	DagJSON                 string    `db:"dag_json" json:"dagJson"` // 提交时携带的DAG定义，Master不反查独立的ProcessDefinition存储
	CommandType             string    `db:"command_type" json:"commandType"`
	RecoveryStartNodeIDs    []string  `db:"-" json:"recoveryStartNodeIds"`
	StartNodeNames          []string  `db:"-" json:"startNodeNames"`
	ComplementDataStartDate *time.Time `db:"-" json:"complementDataStartDate,omitempty"`
	ComplementDataEndDate   *time.Time `db:"-" json:"complementDataEndDate,omitempty"`
	TaskDependTypeRaw       string    `db:"task_depend_type" json:"taskDependType"`
	CommandParamRaw         string    `db:"command_param" json:"-"`
	Host                    string    `db:"host" json:"host"`
	CreateTime              time.Time `db:"create_time" json:"createTime"`
}

// CommandTypeStart 正常启动
// CommandTypeRecoverTolerance 容错恢复（failoverMaster产出）
// CommandTypeRecoverWaitingThread WAITING_THREAD恢复
// CommandTypeComplementData 回补数据
const (
	CommandTypeStart               = "START_PROCESS"
	CommandTypeRecoverTolerance    = "RECOVER_TOLERANCE_FAULT_PROCESS"
	CommandTypeRecoverWaitingThread = "RECOVER_WAITING_THREAD"
	CommandTypeComplementData      = "COMPLEMENT_DATA"
)
