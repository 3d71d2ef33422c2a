// Package realtime 提供TaskInstance状态变更的事件驱动通知支持
package realtime

import (
	"sync"
	"sync/atomic"
)

// DataBuffer 背压控制缓冲区：容量满时Push直接丢弃，使用率越过阈值触发一次性回调
type DataBuffer struct {
	data         chan interface{}
	capacity     int
	threshold    float64
	backpressure int32 // atomic，0=正常，1=背压

	onBackpressure func(usage float64)

	mu sync.RWMutex
}

// NewDataBuffer 创建数据缓冲区
func NewDataBuffer(capacity int, threshold float64) *DataBuffer {
	if capacity <= 0 {
		capacity = 10000
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.8
	}

	return &DataBuffer{
		data:      make(chan interface{}, capacity),
		capacity:  capacity,
		threshold: threshold,
	}
}

// SetBackpressureCallback 设置背压触发回调
func (b *DataBuffer) SetBackpressureCallback(callback func(usage float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onBackpressure = callback
}

// Push 推入数据（非阻塞）
// 返回 true 表示成功，false 表示缓冲区已满（数据被丢弃）
func (b *DataBuffer) Push(item interface{}) bool {
	select {
	case b.data <- item:
		b.checkBackpressure()
		return true
	default:
		return false
	}
}

// PopBlocking 弹出数据（阻塞）
func (b *DataBuffer) PopBlocking() interface{} {
	item := <-b.data
	b.checkBackpressure()
	return item
}

// checkBackpressure 检查背压状态，越过阈值时触发一次回调，降到阈值一半以下时解除
func (b *DataBuffer) checkBackpressure() {
	usage := float64(len(b.data)) / float64(b.capacity)

	if usage >= b.threshold {
		if atomic.CompareAndSwapInt32(&b.backpressure, 0, 1) {
			b.mu.RLock()
			callback := b.onBackpressure
			b.mu.RUnlock()
			if callback != nil {
				go callback(usage)
			}
		}
	} else if usage < b.threshold*0.5 {
		atomic.CompareAndSwapInt32(&b.backpressure, 1, 0)
	}
}
