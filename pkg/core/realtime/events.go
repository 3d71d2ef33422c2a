// Package realtime 提供TaskInstance状态变更的事件驱动通知支持
package realtime

import (
	"time"

	"github.com/google/uuid"
)

// EventType 事件类型
type EventType string

const (
	// EventTaskStarted 任务启动
	EventTaskStarted EventType = "task.started"
	// EventTaskStopped 任务停止（成功、失败或被终止）
	EventTaskStopped EventType = "task.stopped"
)

// RealtimeEvent 实时事件基础结构
type RealtimeEvent struct {
	ID         string      `json:"id"`          // 事件ID（UUID）
	Type       EventType   `json:"type"`        // 事件类型
	TaskID     string      `json:"task_id"`     // 关联任务ID
	InstanceID string      `json:"instance_id"` // 关联实例ID
	Timestamp  time.Time   `json:"timestamp"`   // 事件时间
	Payload    interface{} `json:"payload"`     // 事件负载
}

// NewRealtimeEvent 创建实时事件
func NewRealtimeEvent(eventType EventType, taskID, instanceID string, payload interface{}) *RealtimeEvent {
	return &RealtimeEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		TaskID:     taskID,
		InstanceID: instanceID,
		Timestamp:  time.Now(),
		Payload:    payload,
	}
}

// TaskStatusPayload 任务状态事件负载
type TaskStatusPayload struct {
	TaskID    string `json:"task_id"`    // 任务ID
	TaskName  string `json:"task_name"`  // 任务名称
	OldStatus string `json:"old_status"` // 旧状态
	NewStatus string `json:"new_status"` // 新状态
	Reason    string `json:"reason"`     // 状态变化原因
}
