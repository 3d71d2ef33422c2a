package producer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/core/model"
)

// fakeStore 只实现测试用到的SaveCommand，其余方法panic提醒误用
type fakeStore struct {
	mu   sync.Mutex
	cmds []*model.Command
}

func (f *fakeStore) SaveCommand(ctx context.Context, cmd *model.Command) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd.ID = int64(len(f.cmds) + 1)
	f.cmds = append(f.cmds, cmd)
	return cmd.ID, nil
}

func (f *fakeStore) snapshot() []*model.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Command, len(f.cmds))
	copy(out, f.cmds)
	return out
}

// 其余ProcessStore方法在本测试套件中不会被调用
func (f *fakeStore) FindProcessInstanceByID(ctx context.Context, id int64) (*model.ProcessInstance, error) { panic("unused") }
func (f *fakeStore) SaveProcessInstance(ctx context.Context, pi *model.ProcessInstance) (int64, error)      { panic("unused") }
func (f *fakeStore) UpdateProcessInstance(ctx context.Context, pi *model.ProcessInstance) error             { panic("unused") }
func (f *fakeStore) FindValidTaskListByProcessID(ctx context.Context, id int64) ([]*model.TaskInstance, error) {
	panic("unused")
}
func (f *fakeStore) FindTaskInstanceByID(ctx context.Context, id int64) (*model.TaskInstance, error) { panic("unused") }
func (f *fakeStore) SaveTaskInstance(ctx context.Context, ti *model.TaskInstance) (int64, error)     { panic("unused") }
func (f *fakeStore) UpdateTaskInstance(ctx context.Context, ti *model.TaskInstance) error             { panic("unused") }
func (f *fakeStore) MarkTaskInstanceFlagNo(ctx context.Context, id int64) error                        { panic("unused") }
func (f *fakeStore) QueryNeedFailoverProcessInstances(ctx context.Context, host string) ([]*model.ProcessInstance, error) {
	panic("unused")
}
func (f *fakeStore) QueryNeedFailoverTaskInstances(ctx context.Context, host string) ([]*model.TaskInstance, error) {
	panic("unused")
}
func (f *fakeStore) ProcessNeedFailoverProcessInstances(ctx context.Context, pi *model.ProcessInstance) error {
	panic("unused")
}
func (f *fakeStore) CreateRecoveryWaitingThreadCommand(ctx context.Context, existing *model.Command, pi *model.ProcessInstance) error {
	panic("unused")
}
func (f *fakeStore) PollCommands(ctx context.Context, limit int) ([]*model.Command, error) { panic("unused") }
func (f *fakeStore) DeleteCommand(ctx context.Context, id int64) error                     { panic("unused") }
func (f *fakeStore) Close() error                                                           { return nil }

func TestRegister_RejectsDuplicateProcessDefinition(t *testing.T) {
	store := &fakeStore{}
	p := NewCronProducer(store)

	require.NoError(t, p.Register(Schedule{ProcessDefinitionID: 1, CronExpr: "*/5 * * * * *"}))
	err := p.Register(Schedule{ProcessDefinitionID: 1, CronExpr: "*/5 * * * * *"})
	assert.Error(t, err)
}

func TestRegister_RejectsInvalidCronExpr(t *testing.T) {
	store := &fakeStore{}
	p := NewCronProducer(store)

	err := p.Register(Schedule{ProcessDefinitionID: 1, CronExpr: "not-a-cron-expr"})
	assert.Error(t, err)
}

func TestCronProducer_ProducesCommandOnTick(t *testing.T) {
	store := &fakeStore{}
	p := NewCronProducer(store)

	require.NoError(t, p.Register(Schedule{ProcessDefinitionID: 42, DagJSON: `{"nodes":[]}`, CronExpr: "* * * * * *"}))
	p.Start()
	defer p.Stop()

	require.Eventually(t, func() bool {
		return len(store.snapshot()) > 0
	}, 3*time.Second, 50*time.Millisecond)

	cmds := store.snapshot()
	assert.Equal(t, int64(42), cmds[0].ProcessDefinitionID)
	assert.Equal(t, model.CommandTypeStart, cmds[0].CommandType)
	assert.Equal(t, `{"nodes":[]}`, cmds[0].DagJSON)
}

func TestUnregister_StopsFutureTriggers(t *testing.T) {
	store := &fakeStore{}
	p := NewCronProducer(store)

	require.NoError(t, p.Register(Schedule{ProcessDefinitionID: 7, CronExpr: "* * * * * *"}))
	p.Unregister(7)
	p.Start()
	defer p.Stop()

	time.Sleep(1200 * time.Millisecond)
	assert.Empty(t, store.snapshot())
}
