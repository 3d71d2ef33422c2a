// Package master 组装ZooKeeper集群协调、DAG执行、定时生产与HTTP控制面，
// 是一个可执行的Master进程的装配入口。
package master

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/workflow-master/core/pkg/alert"
	"github.com/workflow-master/core/pkg/api/handler"
	"github.com/workflow-master/core/pkg/cluster"
	"github.com/workflow-master/core/pkg/config"
	"github.com/workflow-master/core/pkg/core/engine"
	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/producer"
	"github.com/workflow-master/core/pkg/progress"
	"github.com/workflow-master/core/pkg/storage"
	"github.com/workflow-master/core/pkg/supervisor"
)

// Server 是一个Master进程持有的全部运行态资源（对外导出）
type Server struct {
	cfg     *config.MasterConfig
	store   storage.ProcessStore
	alerter *alert.Manager
	cluster *cluster.Controller
	pool    *engine.Pool
	hub     *progress.Hub
	cron    *producer.CronProducer

	execSem chan struct{} // 控制并发运行的ProcessInstance数量，对应 master.exec.threads

	mu        sync.Mutex
	active    map[int64]context.CancelFunc // processInstanceId -> 取消函数
	startedAt time.Time
}

// New 按配置装配一个Server，完成ZooKeeper连接、告警通道初始化（store由调用方打开后传入），但不启动任何循环
func New(cfg *config.MasterConfig, store storage.ProcessStore) (*Server, error) {
	alertCfg := alert.Config{}
	if cfg.Alert.Email != nil {
		alertCfg.Email = &alert.EmailConfig{
			SMTPHost: cfg.Alert.Email.SMTPHost,
			SMTPPort: cfg.Alert.Email.SMTPPort,
			Username: cfg.Alert.Email.Username,
			Password: cfg.Alert.Email.Password,
			From:     cfg.Alert.Email.From,
			To:       cfg.Alert.Email.To,
		}
	}
	if cfg.Alert.Webhook != nil {
		alertCfg.Webhook = &alert.WebhookConfig{URL: cfg.Alert.Webhook.URL}
	}
	alerter, err := alert.New(alertCfg)
	if err != nil {
		return nil, fmt.Errorf("初始化告警管理器失败: %w", err)
	}

	clusterController, err := cluster.New(cluster.Config{
		Servers:           cfg.Coordination.Servers,
		Namespace:         cfg.Coordination.Namespace,
		Host:              cfg.Coordination.Host,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		WarnTimesFailover: cfg.Coordination.WarnTimesFailover,
	}, store, alerter)
	if err != nil {
		return nil, fmt.Errorf("连接集群协调存储失败: %w", err)
	}

	// 用进程内的gochannel承载Dispatcher的发布/订阅：语料库内没有出现任何外部消息中间件驱动
	// （kafka/amqp客户端），所以这里退化为内存通道，真实部署时替换为broker驱动的message.Publisher
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	dispatcher, err := supervisor.NewDispatcher(context.Background(), pubsub, pubsub, "dispatch", "task.result")
	if err != nil {
		return nil, fmt.Errorf("初始化任务分发器失败: %w", err)
	}

	hub := progress.NewHub(4096, 0.85)

	engineCfg := engine.Config{
		SleepInterval:  time.Second,
		TaskThreads:    cfg.Master.Exec.Task.Threads,
		ResourceCPU:    cfg.Master.Task.Resource.CPU * 100, // 配置是0~1的占比，engine按百分比比较
		ResourceMemory: cfg.Master.Task.Resource.Mem * 100,
	}
	pool := engine.NewPool(engineCfg, store, alerter, dispatcher, hub)

	return &Server{
		cfg:       cfg,
		store:     store,
		alerter:   alerter,
		cluster:   clusterController,
		pool:      pool,
		hub:       hub,
		cron:      producer.NewCronProducer(store),
		execSem:   make(chan struct{}, cfg.Master.Exec.Threads),
		active:    make(map[int64]context.CancelFunc),
		startedAt: time.Now(),
	}, nil
}

// Hub 暴露websocket广播中枢，供main把 /ws/progress 挂到gin路由
func (s *Server) Hub() *progress.Hub { return s.hub }

// Start 注册进入集群、启动定时生产器与命令领取循环
func (s *Server) Start(ctx context.Context) error {
	if err := s.cluster.Start(ctx); err != nil {
		return fmt.Errorf("加入集群失败: %w", err)
	}
	s.cron.Start()
	go s.schedulerLoop(ctx)
	log.Printf("✅ Master已启动: host=%s", s.cfg.Coordination.Host)
	return nil
}

// schedulerLoop 周期性地从ProcessStore领取Command并提交为新的ProcessInstance运行
func (s *Server) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollAndSubmit(ctx)
		}
	}
}

func (s *Server) pollAndSubmit(ctx context.Context) {
	cmds, err := s.store.PollCommands(ctx, s.cfg.Master.Exec.Threads)
	if err != nil {
		log.Printf("⚠️ 领取Command失败: %v", err)
		return
	}
	for _, cmd := range cmds {
		select {
		case s.execSem <- struct{}{}:
		default:
			log.Printf("🕐 Master-Exec-Thread已饱和，Command(%d)留待下一轮", cmd.ID)
			return
		}
		if err := s.submitCommand(ctx, cmd); err != nil {
			log.Printf("❌ 提交Command(%d)失败: %v", cmd.ID, err)
			<-s.execSem
			continue
		}
	}
}

func (s *Server) submitCommand(ctx context.Context, cmd *model.Command) error {
	pi, err := materializeFromCommand(cmd)
	if err != nil {
		return err
	}
	id, err := s.store.SaveProcessInstance(ctx, pi)
	if err != nil {
		return fmt.Errorf("落盘ProcessInstance失败: %w", err)
	}
	if err := s.store.DeleteCommand(ctx, cmd.ID); err != nil {
		log.Printf("⚠️ 删除已消费的Command(%d)失败: %v", cmd.ID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.active[id] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			<-s.execSem
			s.mu.Lock()
			delete(s.active, id)
			s.mu.Unlock()
		}()
		state, err := s.pool.RunProcess(runCtx, id)
		if err != nil {
			log.Printf("❌ ProcessInstance(%d)运行出错: %v", id, err)
			return
		}
		log.Printf("🎉 ProcessInstance(%d)结束，终态=%s", id, state)
	}()
	return nil
}

func materializeFromCommand(cmd *model.Command) (*model.ProcessInstance, error) {
	pi := &model.ProcessInstance{
		DefinitionID:    cmd.ProcessDefinitionID,
		DagJSON:         cmd.DagJSON,
		State:           types.SubmittedSuccess,
		CommandType:     cmd.CommandType,
		CommandParamRaw: cmd.CommandParamRaw,
		Host:            cmd.Host,
		FailureStrategy: types.FailureStrategyEnd,
	}
	return pi, nil
}

// Status 实现 handler.ProcessController
func (s *Server) Status() handler.ClusterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return handler.ClusterStatus{
		Host:            s.cfg.Coordination.Host,
		StartedAt:       s.startedAt,
		ActiveProcesses: len(s.active),
	}
}

// Pause 把ProcessInstance置为READY_PAUSE，DagEngine在下一轮tick通过refreshControlSignal感知
func (s *Server) Pause(ctx context.Context, processInstanceID int64) error {
	return s.requestControl(ctx, processInstanceID, types.ReadyPause)
}

// Resume 把暂停中的ProcessInstance置回RUNNING_EXECUTION
func (s *Server) Resume(ctx context.Context, processInstanceID int64) error {
	return s.requestControl(ctx, processInstanceID, types.RunningExecution)
}

// Stop 把ProcessInstance置为READY_STOP，DagEngine会调用killOthers()终止活跃Supervisor
func (s *Server) Stop(ctx context.Context, processInstanceID int64) error {
	return s.requestControl(ctx, processInstanceID, types.ReadyStop)
}

func (s *Server) requestControl(ctx context.Context, processInstanceID int64, target types.ExecutionStatus) error {
	pi, err := s.store.FindProcessInstanceByID(ctx, processInstanceID)
	if err != nil {
		return fmt.Errorf("查询ProcessInstance(%d)失败: %w", processInstanceID, err)
	}
	pi.State = target
	if err := s.store.UpdateProcessInstance(ctx, pi); err != nil {
		return fmt.Errorf("更新ProcessInstance(%d)状态失败: %w", processInstanceID, err)
	}

	// DagEngine仍在本Pool内存里跑的话，顺带走一次内存态快速通道，不用等下一轮refreshControlSignal
	// 从存储里把刚写的这行读回来
	if handle, ok := s.pool.Handle(processInstanceID); ok {
		switch target {
		case types.ReadyPause:
			handle.RequestPause()
		case types.ReadyStop:
			handle.RequestStop()
		}
	}
	return nil
}

// Progress 查询一个正在本Master上运行的ProcessInstance的实时进度快照；不在本Master上运行时返回false
func (s *Server) Progress(processInstanceID int64) (handler.ProgressSnapshot, bool) {
	handle, ok := s.pool.Handle(processInstanceID)
	if !ok {
		return handler.ProgressSnapshot{}, false
	}
	snap := handle.GetProgress()
	return handler.ProgressSnapshot{
		Total:          snap.Total,
		Completed:      snap.Completed,
		Running:        snap.Running,
		Failed:         snap.Failed,
		Pending:        snap.Pending,
		RunningTaskIDs: snap.RunningTaskIDs,
		PendingTaskIDs: snap.PendingTaskIDs,
	}, true
}

// Shutdown 实现启动说明里的关闭顺序：失去最后一个Master前告警 -> 置全局停止标志 ->
// 等待活跃Supervisor短暂drain -> 依次关闭集群客户端与存储
func (s *Server) Shutdown(ctx context.Context) {
	if remaining := s.cluster.MastersRemaining(); remaining >= 0 && remaining < 2 {
		for i := 0; i < s.cfg.Coordination.WarnTimesFailover; i++ {
			_ = s.alerter.Alert(ctx, "Master节点下线", fmt.Sprintf("host=%s 即将下线，集群将失去最后一个Master", s.cfg.Coordination.Host))
		}
	}

	s.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(s.active))
	for _, cancel := range s.active {
		cancels = append(cancels, cancel)
	}
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}

	time.Sleep(2 * time.Second) // 给正在运行的Supervisor一点时间完成drain

	s.cron.Stop()
	s.cluster.Stop()
	if err := s.store.Close(); err != nil {
		log.Printf("⚠️ 关闭存储失败: %v", err)
	}
	log.Println("✅ Master已完成优雅关闭")
}
