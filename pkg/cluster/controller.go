package cluster

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
	"github.com/workflow-master/core/pkg/storage"
)

// Alerter 是Controller失联告警要用到的最小接口，真正实现在pkg/alert
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Config 是Controller的启动参数（对外导出）
type Config struct {
	Servers           []string
	Namespace         string // 协调命名空间根，如 "/workflow-master"
	Host              string // "ip:port" 形式的自身标识
	HeartbeatInterval time.Duration
	WarnTimesFailover int // 同一台死亡Master/Worker重复告警的次数上限
}

// Controller 是ZKMasterClient的落地：master/worker存活监视 + failover编排（对外导出）
type Controller struct {
	cfg     Config
	coord   *CoordService
	store   storage.ProcessStore
	alerter Alerter

	mu        sync.Mutex
	warnCount map[string]int
	startTime time.Time

	appLinkClient *http.Client
}

// New 连接ZooKeeper并构造Controller（不启动监视循环，调用Start完成注册）
func New(cfg Config, store storage.ProcessStore, alerter Alerter) (*Controller, error) {
	coord, _, err := Dial(cfg.Servers, cfg.Namespace, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Controller{
		cfg:           cfg,
		coord:         coord,
		store:         store,
		alerter:       alerter,
		warnCount:     make(map[string]int),
		startTime:     time.Now(),
		appLinkClient: &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (c *Controller) mastersPath() string { return c.coord.Path("masters") }
func (c *Controller) workersPath() string { return c.coord.Path("workers") }
func (c *Controller) deadServersPath(typ, host string) string {
	return c.coord.Path(fmt.Sprintf("dead-servers/%s_%s", typ, host))
}

// Start 执行启动期注册：建父节点、拿startup锁、注册自身、必要时做一次孤儿清理，然后开始长期监视
func (c *Controller) Start(ctx context.Context) error {
	for _, p := range []string{c.mastersPath(), c.workersPath(), c.coord.Path("dead-servers")} {
		if err := c.coord.EnsurePath(p); err != nil {
			return err
		}
	}

	startupLock := c.coord.NewMutex(c.coord.Path("lock/failover/startup"))
	if err := startupLock.Lock(); err != nil {
		return fmt.Errorf("获取启动锁失败: %w", err)
	}
	defer startupLock.Unlock()

	if err := c.register(); err != nil {
		return err
	}
	log.Printf("✅ 已注册到集群: %s", c.cfg.Host)

	masters, err := c.coord.Children(c.mastersPath())
	if err != nil {
		return err
	}
	if len(masters) == 1 {
		log.Printf("🕐 集群中仅有本节点，执行一次孤儿工作清理")
		if err := c.failoverWorker(ctx, "", true); err != nil {
			log.Printf("⚠️ 启动期failoverWorker失败: %v", err)
		}
		if err := c.failoverMaster(ctx, ""); err != nil {
			log.Printf("⚠️ 启动期failoverMaster失败: %v", err)
		}
	}

	go c.watchMasters(ctx)
	go c.watchWorkers(ctx)
	go c.heartbeatLoop(ctx)
	return nil
}

func (c *Controller) register() error {
	hb := c.heartbeat()
	return c.coord.CreateEphemeral(c.mastersPath()+"/"+c.cfg.Host, hb)
}

func (c *Controller) heartbeat() model.Heartbeat {
	cpuPct, memPct, load := sampleResourceUsage()
	return model.Heartbeat{
		Host:          c.cfg.Host,
		Pid:           os.Getpid(),
		CPUPercent:    cpuPct,
		MemPercent:    memPct,
		LoadAvg:       load,
		StartTime:     c.startTime,
		LastHeartbeat: time.Now(),
	}
}

// heartbeatLoop 每 HeartbeatInterval 向自身znode写入一次心跳，启动后延迟5秒开始
func (c *Controller) heartbeatLoop(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(5 * time.Second):
	}
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		if err := c.coord.Set(c.mastersPath()+"/"+c.cfg.Host, c.heartbeat()); err != nil {
			log.Printf("⚠️ 心跳写入失败: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Controller) watchMasters(ctx context.Context) {
	watcher := WatchChildren(ctx, c.coord, c.mastersPath())
	for ev := range watcher.Events() {
		for _, host := range ev.Removed {
			if host == c.cfg.Host {
				continue // 观测到自己消失（session抖动），忽略
			}
			c.onMasterRemoved(ctx, host)
		}
	}
}

func (c *Controller) watchWorkers(ctx context.Context) {
	watcher := WatchChildren(ctx, c.coord, c.workersPath())
	for ev := range watcher.Events() {
		for _, host := range ev.Removed {
			c.onWorkerRemoved(ctx, host)
		}
	}
}

func (c *Controller) onMasterRemoved(ctx context.Context, host string) {
	lock := c.coord.NewMutex(c.coord.Path("lock/failover/master"))
	if err := lock.Lock(); err != nil {
		log.Printf("⚠️ 获取master failover锁失败: %v", err)
		return
	}
	defer lock.Unlock()

	c.recordDeadServer(ctx, "MASTER", host)
	c.warnRepeated(ctx, "MASTER", host)
	if err := c.failoverMaster(ctx, host); err != nil {
		log.Printf("❌ failoverMaster(%s)失败: %v", host, err)
	}
}

func (c *Controller) onWorkerRemoved(ctx context.Context, host string) {
	lock := c.coord.NewMutex(c.coord.Path("lock/failover/worker"))
	if err := lock.Lock(); err != nil {
		log.Printf("⚠️ 获取worker failover锁失败: %v", err)
		return
	}
	defer lock.Unlock()

	c.recordDeadServer(ctx, "WORKER", host)
	c.warnRepeated(ctx, "WORKER", host)
	if err := c.failoverWorker(ctx, host, true); err != nil {
		log.Printf("❌ failoverWorker(%s)失败: %v", host, err)
	}
}

func (c *Controller) recordDeadServer(ctx context.Context, typ, host string) {
	marker := model.DeadServerMarker{Type: typ, Host: host, RecordedAt: time.Now()}
	if err := c.coord.CreatePersistent(c.deadServersPath(typ, host), marker); err != nil {
		log.Printf("⚠️ 记录死亡节点标记失败: %v", err)
	}
}

func (c *Controller) warnRepeated(ctx context.Context, typ, host string) {
	c.mu.Lock()
	key := typ + ":" + host
	c.warnCount[key]++
	count := c.warnCount[key]
	c.mu.Unlock()

	if c.alerter == nil || count > c.cfg.WarnTimesFailover {
		return
	}
	subject := fmt.Sprintf("%s节点失联: %s", typ, host)
	body := fmt.Sprintf("第%d次告警（上限%d次）", count, c.cfg.WarnTimesFailover)
	if err := c.alerter.Alert(ctx, subject, body); err != nil {
		log.Printf("⚠️ 发送failover告警失败: %v", err)
	}
}

// failoverMaster 把原本归属host的ProcessInstance清空host并重新入队，host为空表示处理所有
func (c *Controller) failoverMaster(ctx context.Context, host string) error {
	instances, err := c.store.QueryNeedFailoverProcessInstances(ctx, host)
	if err != nil {
		return fmt.Errorf("查询待failover的ProcessInstance失败: %w", err)
	}
	for _, pi := range instances {
		if err := c.store.ProcessNeedFailoverProcessInstances(ctx, pi); err != nil {
			log.Printf("⚠️ failover ProcessInstance(%d)失败: %v", pi.ID, err)
			continue
		}
		log.Printf("🕐 ProcessInstance(%d)已重新入队等待新Master接管", pi.ID)
	}
	return nil
}

// failoverWorker 把原本归属host的TaskInstance置为NEED_FAULT_TOLERANCE，host为空表示处理所有
// checkAlive=true时跳过仍然存活且startTime晚于任务起始时间的worker（新一代worker已经接管）
func (c *Controller) failoverWorker(ctx context.Context, host string, checkAlive bool) error {
	tasks, err := c.store.QueryNeedFailoverTaskInstances(ctx, host)
	if err != nil {
		return fmt.Errorf("查询待failover的TaskInstance失败: %w", err)
	}
	for _, ti := range tasks {
		if checkAlive {
			if ti.Host == "" {
				continue
			}
			if alive, workerStart, err := c.workerStillAlive(ti.Host); err == nil && alive {
				if ti.StartTime != nil && ti.StartTime.After(workerStart) {
					continue
				}
			}
		}
		c.killAppLinks(ctx, ti)

		ti.State = types.NeedFaultTolerance
		if err := c.store.UpdateTaskInstance(ctx, ti); err != nil {
			log.Printf("⚠️ failover TaskInstance(%d)失败: %v", ti.ID, err)
			continue
		}
		log.Printf("🕐 TaskInstance(%d,%s)已标记为NEED_FAULT_TOLERANCE", ti.ID, ti.Name)
	}
	return nil
}

// killAppLinks 尝试终止TaskInstance挂接的外部资源（如YARN应用的kill URL），失败只记录日志不阻塞failover
func (c *Controller) killAppLinks(ctx context.Context, ti *model.TaskInstance) {
	for _, link := range ti.AppLinks() {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, link, nil)
		if err != nil {
			log.Printf("⚠️ 构造外部资源终止请求失败 TaskInstance(%d) %s: %v", ti.ID, link, err)
			continue
		}
		resp, err := c.appLinkClient.Do(req)
		if err != nil {
			log.Printf("⚠️ 终止外部资源失败 TaskInstance(%d) %s: %v", ti.ID, link, err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("⚠️ 外部资源终止返回非成功状态码 TaskInstance(%d) %s: %d", ti.ID, link, resp.StatusCode)
			continue
		}
		log.Printf("🛑 外部资源已终止 TaskInstance(%d) %s", ti.ID, link)
	}
}

func (c *Controller) workerStillAlive(host string) (bool, time.Time, error) {
	group := firstPathSegment(host)
	path := c.workersPath() + "/" + group + "/" + host
	exists, err := c.coord.Exists(path)
	if err != nil || !exists {
		return false, time.Time{}, err
	}
	var hb model.Heartbeat
	if err := c.coord.Get(path, &hb); err != nil {
		return false, time.Time{}, err
	}
	return true, hb.StartTime, nil
}

func firstPathSegment(host string) string {
	if idx := strings.Index(host, "/"); idx >= 0 {
		return host[:idx]
	}
	return "default"
}

// MastersRemaining 返回当前注册在集群中的Master数量，用于关闭前判断是否正在失去最后一个节点
func (c *Controller) MastersRemaining() int {
	masters, err := c.coord.Children(c.mastersPath())
	if err != nil {
		return -1
	}
	return len(masters)
}

// Stop 撤销自身注册并断开连接
func (c *Controller) Stop() {
	_ = c.coord.Delete(c.mastersPath() + "/" + c.cfg.Host)
	c.coord.Close()
}

func sampleResourceUsage() (cpuPercent, memPercent, loadAvg float64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// 没有依赖任何会暴露系统级CPU/内存占用率的库（本语料库内未见到此类依赖），
	// 这里退化为进程内粒度的近似值，真实部署应替换为系统级采样
	memPercent = float64(m.Sys) / float64(1<<30) * 100
	loadAvg = float64(runtime.NumGoroutine())
	return 0, memPercent, loadAvg
}
