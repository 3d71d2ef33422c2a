package supervisor

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/realtime"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage"
)

// MasterTaskSupervisor 负责一个普通(非SUB_PROCESS)TaskInstance：落盘、下发给Worker、等待结果、响应kill
type MasterTaskSupervisor struct {
	ti         *model.TaskInstance
	store      storage.ProcessStore
	dispatcher *Dispatcher
	progress   ProgressSink

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewMasterTaskSupervisor 构造一个普通任务的Supervisor
func NewMasterTaskSupervisor(ti *model.TaskInstance, store storage.ProcessStore, dispatcher *Dispatcher, progress ProgressSink) *MasterTaskSupervisor {
	return &MasterTaskSupervisor{ti: ti, store: store, dispatcher: dispatcher, progress: progress}
}

// TaskInstance 返回当前持有的TaskInstance快照
func (s *MasterTaskSupervisor) TaskInstance() *model.TaskInstance { return s.ti }

// Submit 落盘running态，发布给Worker，阻塞等待结果或ctx取消
func (s *MasterTaskSupervisor) Submit(ctx context.Context) <-chan Completion {
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

		resultCh, err := s.dispatcher.Dispatch(s.ti)
		if err != nil {
			s.finish(types.Failure)
			out <- Completion{TaskInstance: s.ti, Err: err}
			return
		}
		defer s.dispatcher.Forget(s.ti.ID)

		select {
		case <-runCtx.Done():
			s.finish(types.Kill)
			_ = s.store.UpdateTaskInstance(context.Background(), s.ti)
			s.emit(realtime.EventTaskStopped)
			out <- Completion{TaskInstance: s.ti}
		case result := <-resultCh:
			result.ID = s.ti.ID
			result.ProcessInstanceID = s.ti.ProcessInstanceID
			result.Name = s.ti.Name
			endAt := time.Now()
			result.EndTime = &endAt
			if uerr := s.store.UpdateTaskInstance(context.Background(), result); uerr != nil {
				out <- Completion{TaskInstance: result, Err: uerr}
				return
			}
			s.ti = result
			s.emit(realtime.EventTaskStopped)
			out <- Completion{TaskInstance: result}
		}
	}()
	return out
}

func (s *MasterTaskSupervisor) finish(state types.ExecutionStatus) {
	endAt := time.Now()
	s.ti.State = state
	s.ti.EndTime = &endAt
}

// Kill 取消正在等待的Submit；对已经下发给Worker的任务只是停止等待，不保证Worker侧会停下来
func (s *MasterTaskSupervisor) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *MasterTaskSupervisor) emit(eventType realtime.EventType) {
	if s.progress == nil {
		return
	}
	s.progress.Publish(s.ti.Name, strconv.FormatInt(s.ti.ProcessInstanceID, 10), string(eventType), realtime.TaskStatusPayload{
		TaskID:   s.ti.Name,
		TaskName: s.ti.Name,
		NewStatus: string(s.ti.State),
	})
}
