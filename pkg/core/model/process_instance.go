package model

import (
	"encoding/json"
	"time"

	"github.com/workflow-master/core/pkg/core/types"
)

// ProcessInstance 一次工作流运行（对外导出）
// 由 host 字段标识归属的 Master；host 为空代表尚未被认领（failover之后会被清空）
type ProcessInstance struct {
	ID                   int64                  `db:"id" json:"id"`
	DefinitionID         int64                  `db:"definition_id" json:"definitionId"`
	DagJSON              string                 `db:"dag_json" json:"dagJson"`
	State                types.ExecutionStatus  `db:"state" json:"state"`
	CommandType          string                 `db:"command_type" json:"commandType"`
	CommandParam         map[string]string      `db:"-" json:"commandParam"`
	CommandParamRaw      string                 `db:"command_param" json:"-"`
	Host                 string                 `db:"host" json:"host"`
	StartTime            *time.Time             `db:"start_time" json:"startTime,omitempty"`
	EndTime              *time.Time             `db:"end_time" json:"endTime,omitempty"`
	ScheduleTime         time.Time              `db:"schedule_time" json:"scheduleTime"`
	TimeoutMinutes       int                    `db:"timeout_minutes" json:"timeoutMinutes"`
	FailureStrategy      types.FailureStrategy  `db:"failure_strategy" json:"failureStrategy"`
	IsComplementData     bool                   `db:"is_complement_data" json:"isComplementData"`
	IsSubProcess         bool                   `db:"is_sub_process" json:"isSubProcess"`
	GlobalParamsRaw      string                 `db:"global_params" json:"-"`
	GlobalParams         map[string]string      `db:"-" json:"globalParams"`
	TimeoutAlertSent     bool                   `db:"-" json:"-"` // 进程内幂等标记，每次重启重新判断一次
}

// MarshalParams 把内存里的map序列化进落盘字段，保存前调用
func (p *ProcessInstance) MarshalParams() error {
	if p.CommandParam != nil {
		raw, err := json.Marshal(p.CommandParam)
		if err != nil {
			return err
		}
		p.CommandParamRaw = string(raw)
	}
	if p.GlobalParams != nil {
		raw, err := json.Marshal(p.GlobalParams)
		if err != nil {
			return err
		}
		p.GlobalParamsRaw = string(raw)
	}
	return nil
}

// UnmarshalParams 把落盘字段反序列化进内存map，读取后调用
func (p *ProcessInstance) UnmarshalParams() error {
	if p.CommandParamRaw != "" {
		if err := json.Unmarshal([]byte(p.CommandParamRaw), &p.CommandParam); err != nil {
			return err
		}
	}
	if p.GlobalParamsRaw != "" {
		if err := json.Unmarshal([]byte(p.GlobalParamsRaw), &p.GlobalParams); err != nil {
			return err
		}
	}
	return nil
}

// IsProcessInstanceStop 主循环退出条件：状态已转为终态或等待子流程线程
func (p *ProcessInstance) IsProcessInstanceStop() bool {
	return p.State.IsFinished()
}

// MarkTerminal 落地终态，维护 endTime 必须与终态同时设置的不变量
func (p *ProcessInstance) MarkTerminal(state types.ExecutionStatus, at time.Time) {
	p.State = state
	if state.IsFinished() {
		p.EndTime = &at
	} else {
		p.EndTime = nil
	}
}
