package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Constants(t *testing.T) {
	assert.Equal(t, EventType("task.started"), EventTaskStarted)
	assert.Equal(t, EventType("task.stopped"), EventTaskStopped)
}

func TestNewRealtimeEvent(t *testing.T) {
	payload := TaskStatusPayload{TaskID: "task-1", OldStatus: "running", NewStatus: "success"}

	event := NewRealtimeEvent(EventTaskStopped, "task-1", "instance-1", payload)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventTaskStopped, event.Type)
	assert.Equal(t, "task-1", event.TaskID)
	assert.Equal(t, "instance-1", event.InstanceID)
	assert.NotZero(t, event.Timestamp)
	assert.Equal(t, payload, event.Payload)
}

func TestRealtimeEvent_JSON_Serialization(t *testing.T) {
	payload := TaskStatusPayload{
		TaskID:    "task-1",
		TaskName:  "extract",
		OldStatus: "running",
		NewStatus: "failed",
		Reason:    "exit code 1",
	}

	event := NewRealtimeEvent(EventTaskStopped, "task-1", "instance-1", payload)

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded RealtimeEvent
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Type, decoded.Type)
	assert.Equal(t, event.TaskID, decoded.TaskID)
	assert.Equal(t, event.InstanceID, decoded.InstanceID)
}

func TestTaskStatusPayload_Fields(t *testing.T) {
	payload := TaskStatusPayload{
		TaskID:    "task-123",
		TaskName:  "extract",
		OldStatus: "running",
		NewStatus: "failed",
		Reason:    "worker unreachable",
	}

	assert.Equal(t, "task-123", payload.TaskID)
	assert.Equal(t, "extract", payload.TaskName)
	assert.Equal(t, "running", payload.OldStatus)
	assert.Equal(t, "failed", payload.NewStatus)
	assert.Equal(t, "worker unreachable", payload.Reason)
}

func TestRealtimeEvent_TimestampIsRecent(t *testing.T) {
	before := time.Now()
	event := NewRealtimeEvent(EventTaskStarted, "task-1", "instance-1", nil)
	after := time.Now()

	assert.True(t, event.Timestamp.After(before) || event.Timestamp.Equal(before))
	assert.True(t, event.Timestamp.Before(after) || event.Timestamp.Equal(after))
}
