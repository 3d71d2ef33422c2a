// Package producer 按cron表达式周期性地向ProcessStore落一条启动Command，
// 供Scheduler在下一轮领取时提交为新的ProcessInstance。
package producer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/storage"
)

// Schedule 描述一个ProcessDefinition的定时触发规则
type Schedule struct {
	ProcessDefinitionID int64
	DagJSON             string
	CronExpr            string
}

// CronProducer 定时生产Command（对外导出）
type CronProducer struct {
	cron    *cron.Cron
	store   storage.ProcessStore
	mu      sync.RWMutex
	entries map[int64]cron.EntryID
}

// NewCronProducer 创建定时生产器，秒级精度
func NewCronProducer(store storage.ProcessStore) *CronProducer {
	return &CronProducer{
		cron:    cron.New(cron.WithSeconds()),
		store:   store,
		entries: make(map[int64]cron.EntryID),
	}
}

// Register 为一个ProcessDefinition注册定时触发规则
func (p *CronProducer) Register(sched Schedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.entries[sched.ProcessDefinitionID]; exists {
		return fmt.Errorf("ProcessDefinition(%d)已注册定时调度", sched.ProcessDefinitionID)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(sched.CronExpr); err != nil {
		return fmt.Errorf("ProcessDefinition(%d)的Cron表达式无效: %w", sched.ProcessDefinitionID, err)
	}

	entryID, err := p.cron.AddFunc(sched.CronExpr, func() {
		p.produce(sched.ProcessDefinitionID, sched.DagJSON)
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %w", err)
	}

	p.entries[sched.ProcessDefinitionID] = entryID
	log.Printf("✅ 已注册定时调度: definitionId=%d, cron=%s", sched.ProcessDefinitionID, sched.CronExpr)
	return nil
}

// Unregister 取消一个ProcessDefinition的定时触发规则
func (p *CronProducer) Unregister(processDefinitionID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entryID, exists := p.entries[processDefinitionID]
	if !exists {
		return
	}
	p.cron.Remove(entryID)
	delete(p.entries, processDefinitionID)
}

func (p *CronProducer) produce(processDefinitionID int64, dagJSON string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := &model.Command{
		ProcessDefinitionID: processDefinitionID,
		DagJSON:             dagJSON,
		CommandType:         model.CommandTypeStart,
		TaskDependTypeRaw:   "ALL",
		CreateTime:          time.Now(),
	}
	if _, err := p.store.SaveCommand(ctx, cmd); err != nil {
		log.Printf("❌ 定时生产Command失败: definitionId=%d, err=%v", processDefinitionID, err)
		return
	}
	log.Printf("🕐 定时触发: definitionId=%d 已生成启动Command", processDefinitionID)
}

// Start 启动定时生产器
func (p *CronProducer) Start() {
	p.cron.Start()
	log.Println("✅ 定时生产器已启动")
}

// Stop 停止定时生产器
func (p *CronProducer) Stop() {
	<-p.cron.Stop().Done()
	log.Println("✅ 定时生产器已停止")
}
