package model

import (
	"encoding/json"
	"time"

	"github.com/workflow-master/core/pkg/core/types"
)

// TaskInstance 一次TaskNode的执行尝试（对外导出）
// 身份是 (ProcessInstanceID, Name) 在 flag=YES 期间唯一；Retry会新开一条记录，旧记录flag置NO
type TaskInstance struct {
	ID                int64                 `db:"id" json:"id"`
	ProcessInstanceID int64                 `db:"process_instance_id" json:"processInstanceId"`
	Name              string                `db:"name" json:"name"`
	State             types.ExecutionStatus `db:"state" json:"state"`
	Host              string                `db:"host" json:"host"` // 被分配的Worker，未下发前为空
	Flag              types.TaskFlag        `db:"flag" json:"flag"`
	RetryTimes        int                   `db:"retry_times" json:"retryTimes"`
	StartTime         *time.Time            `db:"start_time" json:"startTime,omitempty"`
	EndTime           *time.Time            `db:"end_time" json:"endTime,omitempty"`
	TaskJSONRaw       string                `db:"task_json" json:"-"`
	TaskJSON          *TaskNode             `db:"-" json:"taskJson"`
	Priority          types.Priority        `db:"task_instance_priority" json:"taskInstancePriority"`
	WorkerGroupID     string                `db:"worker_group_id" json:"workerGroupId"`
	AlertFlag         bool                  `db:"alert_flag" json:"alertFlag"`
	AppLinksRaw       string                `db:"app_links" json:"-"` // 外部资源句柄（如YARN kill URL），JSON字符串数组，供failoverWorker清理
}

// AppLinks 解析AppLinksRaw为外部资源句柄列表；为空或解析失败时返回nil
func (t *TaskInstance) AppLinks() []string {
	if t.AppLinksRaw == "" {
		return nil
	}
	var links []string
	if err := json.Unmarshal([]byte(t.AppLinksRaw), &links); err != nil {
		return nil
	}
	return links
}

// MarshalTaskJSON 把内存中的TaskNode序列化进落盘字段
func (t *TaskInstance) MarshalTaskJSON() error {
	if t.TaskJSON == nil {
		return nil
	}
	raw, err := json.Marshal(t.TaskJSON)
	if err != nil {
		return err
	}
	t.TaskJSONRaw = string(raw)
	return nil
}

// UnmarshalTaskJSON 把落盘字段反序列化为内存中的TaskNode
func (t *TaskInstance) UnmarshalTaskJSON() error {
	if t.TaskJSONRaw == "" {
		return nil
	}
	var node TaskNode
	if err := json.Unmarshal([]byte(t.TaskJSONRaw), &node); err != nil {
		return err
	}
	t.TaskJSON = &node
	return nil
}

// IsTaskComplete 是否已是"完成"语义下的终态（成功、暂停或STOP/KILL类取消态；失败态不在此计入）
// 对应 spec 4.1 prepareProcess() 里 completeTaskList 的判定
func (t *TaskInstance) IsTaskComplete() bool {
	return t.State.IsSuccess() || t.State.IsPause() || t.State.IsCancel()
}

// CanRetry 是否还有重试配额（NEED_FAULT_TOLERANCE下的容错重试是额外的，不消耗这个判断）
func (t *TaskInstance) CanRetry(maxRetryTimes int) bool {
	return t.RetryTimes < maxRetryTimes
}

// RetryBackoffElapsed 重试退避是否已到期：now-endTime >= retryInterval(分钟)
func (t *TaskInstance) RetryBackoffElapsed(now time.Time, retryIntervalMinutes int) bool {
	if t.EndTime == nil {
		return true
	}
	if retryIntervalMinutes <= 0 {
		return true
	}
	return now.Sub(*t.EndTime) >= time.Duration(retryIntervalMinutes)*time.Minute
}

// NewRetryInstance 基于当前失败实例创建一次新的重试尝试：旧记录应由调用者置flag=NO
func (t *TaskInstance) NewRetryInstance(now time.Time) *TaskInstance {
	next := &TaskInstance{
		ProcessInstanceID: t.ProcessInstanceID,
		Name:              t.Name,
		State:             types.SubmittedSuccess,
		Flag:              types.FlagYes,
		RetryTimes:        t.RetryTimes + 1,
		StartTime:         &now,
		TaskJSON:          t.TaskJSON,
		Priority:          t.Priority,
		WorkerGroupID:     t.WorkerGroupID,
	}
	return next
}
