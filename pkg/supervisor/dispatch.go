package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/workflow-master/core/pkg/core/model"
)

// Dispatcher 把TaskInstance以watermill消息的形式发布给Worker，并demux对应的结果消息。
// dispatchTopicPrefix+"."+workerGroupId 是下发队列；resultTopic是所有Worker共享的回执队列，
// 通过消息Metadata里的correlation_id把结果路由回发起者——这是"下发给Worker的机制由外部决定"
// 这一层留白的落地，这里用消息队列实现。
type Dispatcher struct {
	pub                 message.Publisher
	dispatchTopicPrefix string

	mu      sync.Mutex
	waiters map[string]chan *model.TaskInstance
}

// NewDispatcher 订阅resultTopic并启动demux循环
func NewDispatcher(ctx context.Context, pub message.Publisher, sub message.Subscriber, dispatchTopicPrefix, resultTopic string) (*Dispatcher, error) {
	d := &Dispatcher{
		pub:                 pub,
		dispatchTopicPrefix: dispatchTopicPrefix,
		waiters:             make(map[string]chan *model.TaskInstance),
	}
	messages, err := sub.Subscribe(ctx, resultTopic)
	if err != nil {
		return nil, fmt.Errorf("订阅Worker结果队列失败: %w", err)
	}
	go d.demux(messages)
	return d, nil
}

func (d *Dispatcher) demux(messages <-chan *message.Message) {
	for msg := range messages {
		var ti model.TaskInstance
		if err := json.Unmarshal(msg.Payload, &ti); err != nil {
			log.Printf("⚠️ 解析Worker结果消息失败: %v", err)
			msg.Ack()
			continue
		}
		correlationID := msg.Metadata.Get("correlation_id")
		d.mu.Lock()
		ch, ok := d.waiters[correlationID]
		d.mu.Unlock()
		if ok {
			ch <- &ti
		}
		msg.Ack()
	}
}

// Dispatch 发布一条TaskInstance到 dispatchTopicPrefix.<workerGroupId>，返回该任务专属的结果channel
func (d *Dispatcher) Dispatch(ti *model.TaskInstance) (<-chan *model.TaskInstance, error) {
	correlationID := strconv.FormatInt(ti.ID, 10)
	ch := make(chan *model.TaskInstance, 1)
	d.mu.Lock()
	d.waiters[correlationID] = ch
	d.mu.Unlock()

	payload, err := json.Marshal(ti)
	if err != nil {
		d.Forget(ti.ID)
		return nil, fmt.Errorf("序列化TaskInstance失败: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("correlation_id", correlationID)

	group := ti.WorkerGroupID
	if group == "" {
		group = "default"
	}
	if err := d.pub.Publish(d.dispatchTopicPrefix+"."+group, msg); err != nil {
		d.Forget(ti.ID)
		return nil, fmt.Errorf("发布TaskInstance(%d)到Worker队列失败: %w", ti.ID, err)
	}
	return ch, nil
}

// Forget 停止等待某个TaskInstance的结果，任务结束或被kill后调用，避免waiters泄漏
func (d *Dispatcher) Forget(taskInstanceID int64) {
	correlationID := strconv.FormatInt(taskInstanceID, 10)
	d.mu.Lock()
	delete(d.waiters, correlationID)
	d.mu.Unlock()
}
