package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishDoesNotPanicWithoutSubscribers(t *testing.T) {
	h := NewHub(16, 0.8)
	assert.NotPanics(t, func() {
		h.Publish("task-1", "instance-1", "task.started", map[string]string{"name": "t1"})
	})
	// drain goroutine消费事件不应阻塞后续Publish
	time.Sleep(50 * time.Millisecond)
}

func TestHub_BroadcastSkipsWhenNoClients(t *testing.T) {
	h := NewHub(4, 0.8)
	assert.Equal(t, 0, len(h.clients))
	h.broadcast([]byte(`{"type":"task.started"}`))
	assert.Equal(t, 0, len(h.clients))
}
