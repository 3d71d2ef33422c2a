// Package engine 实现单个ProcessInstance的驱动循环：构建依赖子图、提交前沿节点、
// 轮询活跃Supervisor、重算聚合状态，直到进程实例进入终态。
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/workflow-master/core/pkg/core/dag"
	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/core/workflow"
	"github.com/workflow-master/core/pkg/storage"
	"github.com/workflow-master/core/pkg/supervisor"
)

// Alerter 是DagEngine发送超时/容错提示所需的最小接口，真正的落地在pkg/alert
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Config 是DagEngine的运行参数（对外导出）
type Config struct {
	SleepInterval  time.Duration // 主循环每轮之间的固定睡眠
	TaskThreads    int           // Master-Task-Exec-Thread池大小
	ResourceCPU    float64       // 准入控制CPU占用率上限（百分比）
	ResourceMemory float64       // 准入控制内存占用率上限（百分比）
}

type activeTask struct {
	sup  supervisor.TaskSupervisor
	done <-chan supervisor.Completion
}

// DagEngine 驱动单个ProcessInstance（对外导出）；同一个ProcessInstance任意时刻只应有一个DagEngine在跑
type DagEngine struct {
	cfg        Config
	store      storage.ProcessStore
	alerter    Alerter
	dispatcher *supervisor.Dispatcher
	progress   supervisor.ProgressSink
	runner     supervisor.ProcessRunner
	admission  *AdmissionController
	taskExec   *taskExecPool

	pi             *model.ProcessInstance
	processDag     *dag.ProcessDag
	existingByName map[string]*model.TaskInstance
	complementEnd  time.Time

	completeTaskList              map[string]*model.TaskInstance
	errorTaskList                 map[string]*model.TaskInstance
	readyToSubmitTaskList         map[string]*model.TaskInstance
	activeTaskSupervisors         map[string]activeTask
	dependFailedTask              map[string]*model.TaskInstance
	forbiddenTaskList             map[string]bool
	recoverToleranceFaultTaskList map[string]*model.TaskInstance
	taskFailedSubmit              bool
	stopIssued                    bool

	pauseRequested int32 // atomic，RequestPause()设置，refreshControlSignal消费
	stopRequested  int32 // atomic，RequestStop()设置

	progressMu   sync.Mutex
	progressSnap types.ProgressSnapshot
}

// New 构造一个DagEngine；runner用于SUB_PROCESS类型任务递归驱动嵌套的ProcessInstance
func New(cfg Config, store storage.ProcessStore, alerter Alerter, dispatcher *supervisor.Dispatcher, progress supervisor.ProgressSink, runner supervisor.ProcessRunner) *DagEngine {
	if cfg.SleepInterval <= 0 {
		cfg.SleepInterval = time.Second
	}
	if cfg.TaskThreads <= 0 {
		cfg.TaskThreads = 10
	}
	return &DagEngine{
		cfg:        cfg,
		store:      store,
		alerter:    alerter,
		dispatcher: dispatcher,
		progress:   progress,
		runner:     runner,
		admission:  NewAdmissionController(cfg.ResourceCPU, cfg.ResourceMemory),
		taskExec:   newTaskExecPool(cfg.TaskThreads),

		completeTaskList:              make(map[string]*model.TaskInstance),
		errorTaskList:                 make(map[string]*model.TaskInstance),
		readyToSubmitTaskList:         make(map[string]*model.TaskInstance),
		activeTaskSupervisors:         make(map[string]activeTask),
		dependFailedTask:              make(map[string]*model.TaskInstance),
		forbiddenTaskList:             make(map[string]bool),
		recoverToleranceFaultTaskList: make(map[string]*model.TaskInstance),
	}
}

// Run 加载ProcessInstance并驱动到终态，返回最终的ExecutionStatus；实现 supervisor.ProcessRunner
func (e *DagEngine) Run(ctx context.Context, processInstanceID int64) (types.ExecutionStatus, error) {
	pi, err := e.store.FindProcessInstanceByID(ctx, processInstanceID)
	if err != nil {
		return "", fmt.Errorf("加载ProcessInstance(%d)失败: %w", processInstanceID, err)
	}
	if pi == nil {
		return "", fmt.Errorf("ProcessInstance(%d)不存在", processInstanceID)
	}
	e.pi = pi

	if err := e.prepareProcess(ctx); err != nil {
		return "", err
	}

	if e.pi.StartTime == nil {
		now := time.Now()
		e.pi.StartTime = &now
		e.pi.State = types.RunningExecution
		if err := e.store.UpdateProcessInstance(ctx, e.pi); err != nil {
			return "", fmt.Errorf("初始化ProcessInstance(%d)启动时间失败: %w", e.pi.ID, err)
		}
	}

	if e.pi.IsComplementData && !e.pi.IsSubProcess {
		return e.runComplementData(ctx)
	}
	return e.runProcess(ctx)
}

// prepareProcess 读取已持久化的TaskInstance，切分completeTaskList/errorTaskList，并构建剪枝后的DAG
func (e *DagEngine) prepareProcess(ctx context.Context) error {
	if err := e.pi.UnmarshalParams(); err != nil {
		return fmt.Errorf("解析ProcessInstance(%d)参数失败: %w", e.pi.ID, err)
	}

	existing, err := e.store.FindValidTaskListByProcessID(ctx, e.pi.ID)
	if err != nil {
		return fmt.Errorf("加载ProcessInstance(%d)已有TaskInstance失败: %w", e.pi.ID, err)
	}
	e.existingByName = make(map[string]*model.TaskInstance, len(existing))
	for _, ti := range existing {
		if err := ti.UnmarshalTaskJSON(); err != nil {
			return fmt.Errorf("解析TaskInstance(%s).taskJson失败: %w", ti.Name, err)
		}
		e.existingByName[ti.Name] = ti

		switch {
		case ti.State.IsFailure():
			maxRetry := 0
			if ti.TaskJSON != nil {
				maxRetry = ti.TaskJSON.MaxRetryTimes
			}
			e.completeTaskList[ti.Name] = ti
			if !ti.CanRetry(maxRetry) {
				e.errorTaskList[ti.Name] = ti
			}
		case ti.IsTaskComplete():
			e.completeTaskList[ti.Name] = ti
		}
	}

	for _, name := range splitCommaParam(e.pi.CommandParam["forbiddenTaskList"]) {
		e.forbiddenTaskList[name] = true
	}

	depType := types.TaskDependType(e.pi.CommandParam["taskDependType"])
	if depType == "" {
		depType = types.DependTypeAll
	}
	startNodeNames := splitCommaParam(e.pi.CommandParam["startNodeNames"])
	recoveryNodeIDs := splitCommaParam(e.pi.CommandParam["recoveryStartNodeIds"])

	pd, err := dag.GenerateFlowDag(e.pi.DagJSON, startNodeNames, recoveryNodeIDs, depType)
	if err != nil {
		return fmt.Errorf("构建ProcessInstance(%d)依赖图失败: %w", e.pi.ID, err)
	}
	for _, f := range pd.ForbiddenTasks {
		e.forbiddenTaskList[f] = true
	}
	e.processDag = pd

	e.complementEnd = e.pi.ScheduleTime
	if raw := e.pi.CommandParam["complementDataEndDate"]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			e.complementEnd = t
		}
	}
	return nil
}

func splitCommaParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// runProcess 是主循环：提交起点前沿，逐tick轮询活跃Supervisor并重算聚合状态
func (e *DagEngine) runProcess(ctx context.Context) (types.ExecutionStatus, error) {
	e.submitPostNode(ctx, "")

	for !e.pi.IsProcessInstanceStop() {
		e.checkTimeout(ctx)
		e.refreshControlSignal(ctx)
		e.drainActiveSupervisors(ctx)
		e.demotePausedIfFailed(ctx)
		e.flushToleranceAlerts(ctx)
		e.updateProgressSnapshot()

		if e.pi.State == types.ReadyStop && !e.stopIssued {
			e.killOthers()
			e.stopIssued = true
		}

		if e.pi.State == types.RunningExecution && e.admission.CanSubmit() {
			e.dispatchReady(ctx)
		}

		select {
		case <-ctx.Done():
			return e.pi.State, ctx.Err()
		case <-time.After(e.cfg.SleepInterval):
		}

		if newState := e.getProcessInstanceState(); newState != e.pi.State {
			e.pi.MarkTerminal(newState, time.Now())
			if err := e.store.UpdateProcessInstance(ctx, e.pi); err != nil {
				log.Printf("⚠️ 持久化ProcessInstance(%d)状态(%s)失败: %v", e.pi.ID, newState, err)
			}
		}
	}
	return e.pi.State, nil
}

// checkTimeout 超过timeoutMinutes发一次告警，幂等（TimeoutAlertSent只在进程内存里生效）
func (e *DagEngine) checkTimeout(ctx context.Context) {
	if e.pi.TimeoutMinutes <= 0 || e.pi.TimeoutAlertSent || e.pi.StartTime == nil {
		return
	}
	if time.Since(*e.pi.StartTime) < time.Duration(e.pi.TimeoutMinutes)*time.Minute {
		return
	}
	e.pi.TimeoutAlertSent = true
	if e.alerter == nil {
		return
	}
	subject := fmt.Sprintf("ProcessInstance(%d)执行超时", e.pi.ID)
	body := fmt.Sprintf("已运行超过%d分钟", e.pi.TimeoutMinutes)
	if err := e.alerter.Alert(ctx, subject, body); err != nil {
		log.Printf("⚠️ 发送超时告警失败: %v", err)
	}
}

// refreshControlSignal 从存储重新读取ProcessInstance.state，吸收operator通过API发出的
// pause/stop/resume信号；其余状态的计算完全由本Engine自己的getProcessInstanceState负责，
// 这里只认ReadyPause/ReadyStop的请求，以及从PAUSE/READY_PAUSE被外部重新置回RUNNING_EXECUTION的恢复信号
func (e *DagEngine) refreshControlSignal(ctx context.Context) {
	if atomic.CompareAndSwapInt32(&e.stopRequested, 1, 0) && e.pi.State == types.RunningExecution {
		e.pi.State = types.ReadyStop
	}
	if atomic.CompareAndSwapInt32(&e.pauseRequested, 1, 0) && e.pi.State == types.RunningExecution {
		e.pi.State = types.ReadyPause
	}

	fresh, err := e.store.FindProcessInstanceByID(ctx, e.pi.ID)
	if err != nil || fresh == nil {
		return
	}
	switch fresh.State {
	case types.ReadyPause, types.ReadyStop:
		if e.pi.State == types.RunningExecution {
			e.pi.State = fresh.State
		}
	case types.RunningExecution:
		if e.pi.State == types.Pause || e.pi.State == types.ReadyPause {
			e.pi.State = types.RunningExecution
		}
	}
}

// RequestPause 请求本次运行转入PAUSE，供master.Server在内存内持有handle时走快速通道，
// 不等下一轮refreshControlSignal从存储里读到外部API写入的信号
func (e *DagEngine) RequestPause() {
	atomic.StoreInt32(&e.pauseRequested, 1)
}

// RequestStop 请求本次运行转入STOP，语义同RequestPause
func (e *DagEngine) RequestStop() {
	atomic.StoreInt32(&e.stopRequested, 1)
}

// ProcessInstanceID 返回本次运行绑定的ProcessInstance主键
func (e *DagEngine) ProcessInstanceID() int64 {
	return e.pi.ID
}

// GetProgress 返回当前tick的进度快照（对外导出，用于状态查询接口）
func (e *DagEngine) GetProgress() types.ProgressSnapshot {
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	return e.progressSnap
}

// updateProgressSnapshot 在每轮主循环末尾重算一次快照；直接暴露内部map会有并发读写风险，
// 所以这里在单一写者（runProcess所在goroutine）里拷贝出一份只读快照供GetProgress并发读取
func (e *DagEngine) updateProgressSnapshot() {
	running := make([]string, 0, len(e.activeTaskSupervisors))
	for name := range e.activeTaskSupervisors {
		running = append(running, name)
	}
	pending := make([]string, 0, len(e.readyToSubmitTaskList))
	for name := range e.readyToSubmitTaskList {
		pending = append(pending, name)
	}
	total := 0
	if e.processDag != nil {
		total = len(e.processDag.Graph.NodeNames())
	}

	snap := types.ProgressSnapshot{
		Total:          total,
		Completed:      len(e.completeTaskList),
		Running:        len(running),
		Failed:         len(e.errorTaskList),
		Pending:        len(pending),
		RunningTaskIDs: running,
		PendingTaskIDs: pending,
	}

	e.progressMu.Lock()
	e.progressSnap = snap
	e.progressMu.Unlock()
}

func (e *DagEngine) drainActiveSupervisors(ctx context.Context) {
	for name, at := range e.activeTaskSupervisors {
		select {
		case comp, ok := <-at.done:
			if !ok {
				continue
			}
			delete(e.activeTaskSupervisors, name)
			e.handleCompletion(ctx, comp)
		default:
		}
	}
}

// handleCompletion 对一次Supervisor完成结果分类
func (e *DagEngine) handleCompletion(ctx context.Context, comp supervisor.Completion) {
	if comp.TaskInstance == nil {
		e.taskFailedSubmit = true
		return
	}
	ti := comp.TaskInstance

	switch {
	case comp.Err == nil && ti.State.IsSuccess():
		e.completeTaskList[ti.Name] = ti
		e.submitPostNode(ctx, ti.Name)

	case ti.State == types.NeedFaultTolerance:
		// 容错重试是额外的，不消耗maxRetryTimes配额，所以无条件重新入队
		e.recoverToleranceFaultTaskList[ti.Name] = ti
		e.readyToSubmitTaskList[ti.Name] = ti

	case ti.State.IsPause() || ti.State.IsCancel():
		e.completeTaskList[ti.Name] = ti

	default:
		maxRetry := 0
		if ti.TaskJSON != nil {
			maxRetry = ti.TaskJSON.MaxRetryTimes
		}
		if ti.State.IsFailure() && ti.CanRetry(maxRetry) {
			e.readyToSubmitTaskList[ti.Name] = ti
			return
		}
		e.errorTaskList[ti.Name] = ti
		e.completeTaskList[ti.Name] = ti
		if e.pi.FailureStrategy == types.FailureStrategyEnd {
			e.killOthers()
		}
	}
}

// demotePausedIfFailed 失败存在时，把仍标记为PAUSE的complete任务重写为KILL
func (e *DagEngine) demotePausedIfFailed(ctx context.Context) {
	if len(e.errorTaskList) == 0 {
		return
	}
	for name, ti := range e.completeTaskList {
		if ti.State != types.Pause {
			continue
		}
		ti.State = types.Kill
		if err := e.store.UpdateTaskInstance(ctx, ti); err != nil {
			log.Printf("⚠️ 重写TaskInstance(%s)为KILL失败: %v", name, err)
		}
	}
}

func (e *DagEngine) flushToleranceAlerts(ctx context.Context) {
	if len(e.recoverToleranceFaultTaskList) == 0 {
		return
	}
	if e.alerter != nil {
		for name, ti := range e.recoverToleranceFaultTaskList {
			subject := fmt.Sprintf("TaskInstance(%s)进入容错恢复", name)
			body := fmt.Sprintf("ProcessInstance(%d) TaskInstance(%d) 被标记为NEED_FAULT_TOLERANCE", e.pi.ID, ti.ID)
			if err := e.alerter.Alert(ctx, subject, body); err != nil {
				log.Printf("⚠️ 发送容错告警失败: %v", err)
			}
		}
	}
	e.recoverToleranceFaultTaskList = make(map[string]*model.TaskInstance)
}

// dispatchReady 遍历ready队列，依赖满足且退避已过期的任务才会下发
func (e *DagEngine) dispatchReady(ctx context.Context) {
	now := time.Now()
	for name, ti := range e.readyToSubmitTaskList {
		switch e.isTaskDepsComplete(name) {
		case types.DependFailed:
			e.dependFailedTask[name] = ti
			delete(e.readyToSubmitTaskList, name)
			continue
		case types.DependWaiting:
			continue
		}

		if ti.State.IsFailure() {
			interval := 0
			if ti.TaskJSON != nil {
				interval = ti.TaskJSON.RetryIntervalMinutes
			}
			if !ti.RetryBackoffElapsed(now, interval) {
				continue
			}
		}

		if err := e.submitTaskExec(ctx, name, ti); err != nil {
			log.Printf("⚠️ 下发任务(%s)失败: %v", name, err)
			e.taskFailedSubmit = true
			continue
		}
		delete(e.readyToSubmitTaskList, name)
	}
}

// submitTaskExec 必要时先落一条新的重试记录，再附加合适的Supervisor并纳入bounded executor
func (e *DagEngine) submitTaskExec(ctx context.Context, name string, ti *model.TaskInstance) error {
	if ti.State.IsFailure() {
		retry := ti.NewRetryInstance(time.Now())
		if err := e.store.MarkTaskInstanceFlagNo(ctx, ti.ID); err != nil {
			return fmt.Errorf("标记旧TaskInstance(%d)为flag=NO失败: %w", ti.ID, err)
		}
		id, err := e.store.SaveTaskInstance(ctx, retry)
		if err != nil {
			return fmt.Errorf("保存重试TaskInstance(%s)失败: %w", name, err)
		}
		retry.ID = id
		ti = retry
	} else if ti.ID == 0 {
		id, err := e.store.SaveTaskInstance(ctx, ti)
		if err != nil {
			return fmt.Errorf("保存TaskInstance(%s)失败: %w", name, err)
		}
		ti.ID = id
	}

	var sup supervisor.TaskSupervisor
	if ti.TaskJSON != nil && ti.TaskJSON.Type == "SUB_PROCESS" {
		sup = supervisor.NewSubProcessSupervisor(ti, e.store, e.runner, e.progress)
	} else {
		sup = supervisor.NewMasterTaskSupervisor(ti, e.store, e.dispatcher, e.progress)
	}

	done := make(chan supervisor.Completion, 1)
	e.activeTaskSupervisors[name] = activeTask{sup: sup, done: done}
	e.taskExec.Go(func() {
		for comp := range sup.Submit(ctx) {
			done <- comp
		}
		close(done)
	})
	return nil
}

// getProcessInstanceState 按优先级依次判定，第一个匹配的规则生效
func (e *DagEngine) getProcessInstanceState() types.ExecutionStatus {
	if len(e.activeTaskSupervisors) > 0 {
		switch e.pi.State {
		case types.ReadyStop, types.ReadyPause, types.WaitingThread:
			return e.pi.State
		default:
			return types.RunningExecution
		}
	}

	hasFailed := len(e.errorTaskList) > 0
	if hasFailed {
		if e.pi.FailureStrategy == types.FailureStrategyEnd {
			return types.Failure
		}
		if e.pi.FailureStrategy == types.FailureStrategyContinue && len(e.readyToSubmitTaskList) == 0 {
			return types.Failure
		}
	}

	for _, ti := range e.completeTaskList {
		if ti.State == types.WaitingThread {
			return types.WaitingThread
		}
	}

	switch e.pi.State {
	case types.ReadyPause:
		return e.processReadyPause()
	case types.ReadyStop:
		return e.processReadyStop()
	case types.Pause:
		return types.Pause
	default:
		if len(e.readyToSubmitTaskList) == 0 {
			return types.Success
		}
		return types.RunningExecution
	}
}

func (e *DagEngine) processReadyPause() types.ExecutionStatus {
	for _, ti := range e.readyToSubmitTaskList {
		if ti.State.IsFailure() {
			return types.Failure
		}
	}
	for _, ti := range e.completeTaskList {
		if ti.State == types.Pause {
			return types.Pause
		}
	}
	if !e.complementFinished() || len(e.readyToSubmitTaskList) > 0 {
		return types.Pause
	}
	return types.Success
}

func (e *DagEngine) processReadyStop() types.ExecutionStatus {
	for _, ti := range e.completeTaskList {
		if ti.State == types.Stop || ti.State == types.Kill {
			return types.Stop
		}
	}
	if !e.complementFinished() {
		return types.Stop
	}
	return types.Success
}

func (e *DagEngine) complementFinished() bool {
	if !e.pi.IsComplementData || e.pi.IsSubProcess {
		return true
	}
	return !e.pi.ScheduleTime.Before(e.complementEnd)
}

// isTaskDepsComplete 评估某个任务的父节点是否都已满足依赖
func (e *DagEngine) isTaskDepsComplete(name string) types.DependResult {
	if _, ok := e.processDag.Graph.GetNode(name); !ok {
		return types.DependFailed
	}
	parents, err := e.processDag.Graph.GetParents(name)
	if err != nil {
		return types.DependFailed
	}
	if len(parents) == 0 {
		return types.DependSuccess
	}
	for _, dep := range parents {
		if e.forbiddenTaskList[dep] {
			continue
		}
		ti, ok := e.completeTaskList[dep]
		if !ok {
			return types.DependWaiting
		}
		if ti.State.IsFailure() {
			return types.DependFailed
		}
		if ti.State.IsPause() || ti.State.IsCancel() {
			return types.DependWaiting
		}
	}
	return types.DependSuccess
}

// submitPostNode parent为空时计算起点前沿，否则产出parent的直接后继
func (e *DagEngine) submitPostNode(ctx context.Context, parent string) {
	var candidates []string
	if parent == "" {
		candidates = e.startFrontier()
	} else {
		children, err := e.processDag.Graph.GetChildren(parent)
		if err != nil {
			return
		}
		candidates = children
	}

	for _, name := range candidates {
		if e.forbiddenTaskList[name] {
			continue
		}
		if _, ok := e.readyToSubmitTaskList[name]; ok {
			continue
		}
		if _, ok := e.completeTaskList[name]; ok {
			continue
		}
		if existing, ok := e.existingByName[name]; ok && (existing.State.IsPause() || existing.State.IsCancel()) {
			log.Printf("🕐 任务(%s)此前处于暂停/取消态，跳过重新提交", name)
			continue
		}
		e.readyToSubmitTaskList[name] = e.materializeTaskInstance(name)
	}
}

func (e *DagEngine) startFrontier() []string {
	var out []string
	visited := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true

		if e.forbiddenTaskList[name] {
			children, _ := e.processDag.Graph.GetChildren(name)
			for _, c := range children {
				visit(c)
			}
			return
		}
		if _, ok := e.completeTaskList[name]; ok {
			children, _ := e.processDag.Graph.GetChildren(name)
			for _, c := range children {
				visit(c)
			}
			return
		}
		if e.isTaskDepsComplete(name) == types.DependSuccess {
			out = append(out, name)
		}
	}
	for _, root := range e.processDag.Graph.GetRoots() {
		visit(root)
	}
	return out
}

// materializeTaskInstance 按名称复用已持久化的TaskInstance，否则基于DAG节点定义新建一个，
// 新建时把globalParams/commandParam冻结进节点的params，解析${name}占位符
func (e *DagEngine) materializeTaskInstance(name string) *model.TaskInstance {
	if existing, ok := e.existingByName[name]; ok {
		return existing
	}
	node, _ := e.processDag.Graph.GetNode(name)
	node = e.freezeParams(node)
	now := time.Now()
	return &model.TaskInstance{
		ProcessInstanceID: e.pi.ID,
		Name:              name,
		State:             types.SubmittedSuccess,
		Flag:              types.FlagYes,
		RetryTimes:        0,
		StartTime:         &now,
		TaskJSON:          node,
		Priority:          node.EffectivePriority(),
		WorkerGroupID:     node.WorkerGroupID,
	}
}

// freezeParams 克隆节点定义并把globalParams/commandParam渗透进params，未解析的占位符只记日志不阻断提交
func (e *DagEngine) freezeParams(node *model.TaskNode) *model.TaskNode {
	clone := node.Clone()
	replacement := workflow.MergeParams(e.pi.GlobalParams, e.pi.CommandParam)
	if len(replacement) == 0 || len(clone.Params) == 0 {
		return clone
	}
	if unresolved, err := workflow.ReplaceParamsInMap(clone.Params, replacement); err != nil {
		log.Printf("🕐 任务(%s)存在未解析的参数占位符: %v", node.Name, unresolved)
	}
	return clone
}

// killOthers 对仍未进入终态的活跃Supervisor发出kill
func (e *DagEngine) killOthers() {
	for name, at := range e.activeTaskSupervisors {
		ti := at.sup.TaskInstance()
		if ti.State.IsFinished() {
			continue
		}
		if err := at.sup.Kill(); err != nil {
			log.Printf("⚠️ kill任务(%s)失败: %v", name, err)
		}
	}
}

// runComplementData 按日推进scheduleTime，每个逻辑日期重新跑一遍DAG
func (e *DagEngine) runComplementData(ctx context.Context) (types.ExecutionStatus, error) {
	if raw := e.pi.CommandParam["complementDataStartDate"]; raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			e.pi.ScheduleTime = t
		}
	}

	for {
		if e.pi.ScheduleTime.After(e.complementEnd) {
			break
		}
		status, err := e.runProcess(ctx)
		if err != nil {
			return status, err
		}
		if status != types.Success {
			return status, nil
		}

		for name, ti := range e.completeTaskList {
			_ = e.store.MarkTaskInstanceFlagNo(ctx, ti.ID)
			delete(e.completeTaskList, name)
		}
		e.errorTaskList = make(map[string]*model.TaskInstance)
		e.readyToSubmitTaskList = make(map[string]*model.TaskInstance)
		e.dependFailedTask = make(map[string]*model.TaskInstance)
		e.existingByName = make(map[string]*model.TaskInstance)

		e.pi.ScheduleTime = e.pi.ScheduleTime.AddDate(0, 0, 1)
		e.pi.MarkTerminal(types.RunningExecution, time.Now())
		if err := e.store.UpdateProcessInstance(ctx, e.pi); err != nil {
			return e.pi.State, fmt.Errorf("持久化回补进度失败: %w", err)
		}
	}
	return e.pi.State, nil
}
