package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDataBuffer_PushPop(t *testing.T) {
	b := NewDataBuffer(2, 0.8)

	assert.True(t, b.Push("a"))
	assert.Equal(t, "a", b.PopBlocking())
}

func TestDataBuffer_PushReturnsFalseWhenFull(t *testing.T) {
	b := NewDataBuffer(1, 0.8)

	assert.True(t, b.Push("a"))
	assert.False(t, b.Push("b"))
}

func TestDataBuffer_BackpressureCallbackFiresOnceAboveThreshold(t *testing.T) {
	b := NewDataBuffer(2, 0.5)
	fired := make(chan float64, 1)
	b.SetBackpressureCallback(func(usage float64) { fired <- usage })

	b.Push("a")

	select {
	case usage := <-fired:
		assert.GreaterOrEqual(t, usage, 0.5)
	case <-time.After(time.Second):
		t.Fatal("expected backpressure callback to fire")
	}

	assert.True(t, b.Push("b"))
	select {
	case <-fired:
		t.Fatal("backpressure callback fired a second time")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewDataBuffer_DefaultsInvalidArgs(t *testing.T) {
	b := NewDataBuffer(0, 0)
	assert.Equal(t, 10000, b.capacity)
	assert.Equal(t, 0.8, b.threshold)
}
