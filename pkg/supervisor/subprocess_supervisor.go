package supervisor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/realtime"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage"
)

// ProcessRunner 是递归驱动一个嵌套ProcessInstance的最小接口，由engine.Pool实现，
// 避免 pkg/supervisor 直接依赖 pkg/core/engine 形成循环引用
type ProcessRunner interface {
	RunProcess(ctx context.Context, processInstanceID int64) (types.ExecutionStatus, error)
}

// SubProcessSupervisor 负责 taskNode.Type=="SUB_PROCESS" 的任务：不下发给Worker，
// 而是递归驱动另一个ProcessInstance的DagEngine直到其终态
type SubProcessSupervisor struct {
	ti       *model.TaskInstance
	store    storage.ProcessStore
	runner   ProcessRunner
	progress ProgressSink

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewSubProcessSupervisor 构造一个子流程任务的Supervisor
func NewSubProcessSupervisor(ti *model.TaskInstance, store storage.ProcessStore, runner ProcessRunner, progress ProgressSink) *SubProcessSupervisor {
	return &SubProcessSupervisor{ti: ti, store: store, runner: runner, progress: progress}
}

// TaskInstance 返回当前持有的TaskInstance快照
func (s *SubProcessSupervisor) TaskInstance() *model.TaskInstance { return s.ti }

// Submit 落盘running态，递归驱动子流程直到终态，把子流程的终态映射回这个TaskInstance
func (s *SubProcessSupervisor) Submit(ctx context.Context) <-chan Completion {
	out := make(chan Completion, 1)
	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(out)

		now := time.Now()
		s.ti.State = types.RunningExecution
		s.ti.StartTime = &now
		if err := s.store.UpdateTaskInstance(runCtx, s.ti); err != nil {
			out <- Completion{TaskInstance: s.ti, Err: err}
			return
		}
		s.emit(realtime.EventTaskStarted)

		subID, err := s.subProcessInstanceID()
		if err != nil {
			out <- s.finish(types.Failure, err)
			return
		}

		status, err := s.runner.RunProcess(runCtx, subID)
		if err != nil {
			out <- s.finish(types.Failure, err)
			return
		}
		out <- s.finish(status, nil)
	}()
	return out
}

func (s *SubProcessSupervisor) finish(status types.ExecutionStatus, err error) Completion {
	endAt := time.Now()
	s.ti.EndTime = &endAt
	s.ti.State = status
	if uerr := s.store.UpdateTaskInstance(context.Background(), s.ti); uerr != nil && err == nil {
		err = uerr
	}
	s.emit(realtime.EventTaskStopped)
	return Completion{TaskInstance: s.ti, Err: err}
}

func (s *SubProcessSupervisor) subProcessInstanceID() (int64, error) {
	if s.ti.TaskJSON == nil {
		return 0, fmt.Errorf("子流程任务(%s)缺少taskJson", s.ti.Name)
	}
	raw := s.ti.TaskJSON.Params["subProcessInstanceId"]
	if raw == "" {
		return 0, fmt.Errorf("子流程任务(%s)缺少subProcessInstanceId参数", s.ti.Name)
	}
	return strconv.ParseInt(raw, 10, 64)
}

// Kill 取消runCtx，递归ProcessRunner需要自行响应ctx.Done()
func (s *SubProcessSupervisor) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *SubProcessSupervisor) emit(eventType realtime.EventType) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(s.ti.Name, strconv.FormatInt(s.ti.ProcessInstanceID, 10), string(eventType), realtime.TaskStatusPayload{
		TaskID:    s.ti.Name,
		TaskName:  s.ti.Name,
		NewStatus: string(s.ti.State),
	})
}
