package engine

import (
	"context"
	"sync"

	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage"
	"github.com/workflow-master/core/pkg/supervisor"
)

// Pool 持有跨ProcessInstance共享的资源，并实现 supervisor.ProcessRunner，
// 这样子流程任务可以递归驱动另一个DagEngine，而不需要 pkg/supervisor 反向依赖本包
type Pool struct {
	cfg        Config
	store      storage.ProcessStore
	alerter    Alerter
	dispatcher *supervisor.Dispatcher
	progress   supervisor.ProgressSink

	mu     sync.Mutex
	active map[int64]types.DagEngineHandle
}

// NewPool 构造一个Pool，MasterServer启动时持有一个即可
func NewPool(cfg Config, store storage.ProcessStore, alerter Alerter, dispatcher *supervisor.Dispatcher, progress supervisor.ProgressSink) *Pool {
	return &Pool{cfg: cfg, store: store, alerter: alerter, dispatcher: dispatcher, progress: progress, active: make(map[int64]types.DagEngineHandle)}
}

// NewEngine 构造一个与本Pool共享资源的DagEngine，用于驱动一个新的ProcessInstance
func (p *Pool) NewEngine() *DagEngine {
	return New(p.cfg, p.store, p.alerter, p.dispatcher, p.progress, p)
}

// RunProcess 实现 supervisor.ProcessRunner：为给定ProcessInstance新建DagEngine并跑到终态，
// 运行期间把一个types.DagEngineHandle挂进注册表，供Handle()查询进度/发出内存态pause-stop信号
func (p *Pool) RunProcess(ctx context.Context, processInstanceID int64) (types.ExecutionStatus, error) {
	e := p.NewEngine()
	h := &engineHandle{engine: e, processInstanceID: processInstanceID, ctx: ctx}

	p.mu.Lock()
	p.active[processInstanceID] = h
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.active, processInstanceID)
		p.mu.Unlock()
	}()

	return h.Run(ctx)
}

// Handle 返回正在运行的ProcessInstance对应的控制面句柄；ProcessInstance不在本Pool内运行时返回false
func (p *Pool) Handle(processInstanceID int64) (types.DagEngineHandle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.active[processInstanceID]
	return h, ok
}

// engineHandle 把DagEngine.Run(ctx, id)包成 types.DagEngineHandle 的 Run(ctx) 形状，
// 因为句柄一创建时就已经绑定了processInstanceID，调用方不需要再传一次
type engineHandle struct {
	engine            *DagEngine
	processInstanceID int64
	ctx               context.Context
}

func (h *engineHandle) Run(ctx context.Context) (types.ExecutionStatus, error) {
	return h.engine.Run(ctx, h.processInstanceID)
}

func (h *engineHandle) RequestPause() { h.engine.RequestPause() }

func (h *engineHandle) RequestStop() { h.engine.RequestStop() }

func (h *engineHandle) ProcessInstanceID() int64 { return h.processInstanceID }

func (h *engineHandle) GetProgress() types.ProgressSnapshot { return h.engine.GetProgress() }

func (h *engineHandle) Context() context.Context { return h.ctx }
