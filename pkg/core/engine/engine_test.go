package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/supervisor"
)

func newBareEngine() *DagEngine {
	e := New(Config{}, nil, nil, nil, nil, nil)
	e.pi = &model.ProcessInstance{ID: 1}
	return e
}

func TestFreezeParams_ResolvesPlaceholdersFromGlobalAndCommandParams(t *testing.T) {
	e := newBareEngine()
	e.pi.GlobalParams = map[string]string{"env": "prod"}
	e.pi.CommandParam = map[string]string{"env": "staging", "batchDate": "2026-08-06"}

	node := &model.TaskNode{
		Name: "extract",
		Params: map[string]string{
			"target": "${env}",
			"date":   "${batchDate}",
			"static": "no-placeholder",
		},
	}

	frozen := e.freezeParams(node)

	assert.Equal(t, "staging", frozen.Params["target"]) // commandParam优先级高于globalParams
	assert.Equal(t, "2026-08-06", frozen.Params["date"])
	assert.Equal(t, "no-placeholder", frozen.Params["static"])
	// 确认是克隆而不是原地修改
	assert.Equal(t, "${env}", node.Params["target"])
}

func TestFreezeParams_LeavesUnresolvedPlaceholderAsIs(t *testing.T) {
	e := newBareEngine()
	node := &model.TaskNode{Name: "t", Params: map[string]string{"x": "${missing}"}}

	frozen := e.freezeParams(node)

	assert.Equal(t, "${missing}", frozen.Params["x"])
}

func TestGetProcessInstanceState_FailureStrategyEndFailsFast(t *testing.T) {
	e := newBareEngine()
	e.pi.State = types.RunningExecution
	e.pi.FailureStrategy = types.FailureStrategyEnd
	e.errorTaskList["a"] = &model.TaskInstance{Name: "a", State: types.Failure}

	assert.Equal(t, types.Failure, e.getProcessInstanceState())
}

func TestGetProcessInstanceState_FailureStrategyContinueWaitsForReadyQueue(t *testing.T) {
	e := newBareEngine()
	e.pi.State = types.RunningExecution
	e.pi.FailureStrategy = types.FailureStrategyContinue
	e.errorTaskList["a"] = &model.TaskInstance{Name: "a", State: types.Failure}
	e.readyToSubmitTaskList["b"] = &model.TaskInstance{Name: "b", State: types.SubmittedSuccess}

	assert.Equal(t, types.RunningExecution, e.getProcessInstanceState())

	delete(e.readyToSubmitTaskList, "b")
	assert.Equal(t, types.Failure, e.getProcessInstanceState())
}

func TestGetProcessInstanceState_SuccessWhenNothingLeftToRun(t *testing.T) {
	e := newBareEngine()
	e.pi.State = types.RunningExecution

	assert.Equal(t, types.Success, e.getProcessInstanceState())
}

func TestRequestPauseAndStop_ConsumedExactlyOnceByRefreshControlSignal(t *testing.T) {
	e := newBareEngine()
	// 已关闭的release让FindProcessInstanceByID立即返回错误，只走内存标志这条路径
	release := make(chan struct{})
	close(release)
	e.store = &blockingStore{release: release}
	e.pi.State = types.RunningExecution
	e.RequestPause()

	assert.Equal(t, int32(1), e.pauseRequested)
	e.refreshControlSignal(context.Background())
	assert.Equal(t, types.ReadyPause, e.pi.State)
	assert.Equal(t, int32(0), e.pauseRequested)

	// 标志已被消费，再次刷新不会重复生效
	e.pi.State = types.RunningExecution
	e.refreshControlSignal(context.Background())
	assert.Equal(t, types.RunningExecution, e.pi.State)

	e.RequestStop()
	e.refreshControlSignal(context.Background())
	assert.Equal(t, types.ReadyStop, e.pi.State)
	assert.Equal(t, int32(0), e.stopRequested)
}

func TestHandleCompletion_NeedFaultToleranceRetriesRegardlessOfRetryQuota(t *testing.T) {
	e := newBareEngine()
	e.pi.State = types.RunningExecution
	ti := &model.TaskInstance{
		Name:       "a",
		State:      types.NeedFaultTolerance,
		RetryTimes: 0,
		TaskJSON:   &model.TaskNode{Name: "a", MaxRetryTimes: 0},
	}

	e.handleCompletion(context.Background(), supervisor.Completion{TaskInstance: ti})

	_, ready := e.readyToSubmitTaskList["a"]
	assert.True(t, ready, "NEED_FAULT_TOLERANCE必须无条件重新入队，不受maxRetryTimes限制")
	_, errored := e.errorTaskList["a"]
	assert.False(t, errored)
}

func TestGetProgress_ReturnsZeroValueBeforeAnyTick(t *testing.T) {
	e := newBareEngine()
	snap := e.GetProgress()
	assert.Equal(t, 0, snap.Total)
	assert.Empty(t, snap.RunningTaskIDs)
}
