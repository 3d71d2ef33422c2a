package cluster

import (
	"context"
	"log"
	"time"

	zk "github.com/samuel/go-zookeeper/zk"
)

// ChildEvent 是子节点集合发生变化后产出的一条通知（对外导出）
type ChildEvent struct {
	Added   []string
	Removed []string
}

// ChildrenWatcher 持续监视path下的子节点集合，每次收到事件后自动重新安装watch
// 每次事件后都重新挂上watch，行为类似ZooKeeper PathChildrenCache的自动重建
type ChildrenWatcher struct {
	coord *CoordService
	path  string
	out   chan ChildEvent
}

// WatchChildren 启动对path的持续监视，ctx取消时退出
func WatchChildren(ctx context.Context, coord *CoordService, path string) *ChildrenWatcher {
	w := &ChildrenWatcher{coord: coord, path: path, out: make(chan ChildEvent, 16)}
	go w.run(ctx)
	return w
}

// Events 返回子节点增删事件流
func (w *ChildrenWatcher) Events() <-chan ChildEvent {
	return w.out
}

func (w *ChildrenWatcher) run(ctx context.Context) {
	defer close(w.out)
	prev := make(map[string]bool)
	for {
		children, _, events, err := w.coord.conn.ChildrenW(w.path)
		if err != nil {
			log.Printf("⚠️ 监视子节点失败(%s): %v，1秒后重试", w.path, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		current := make(map[string]bool, len(children))
		for _, c := range children {
			current[c] = true
		}
		var added, removed []string
		for c := range current {
			if !prev[c] {
				added = append(added, c)
			}
		}
		for c := range prev {
			if !current[c] {
				removed = append(removed, c)
			}
		}
		prev = current
		if len(added) > 0 || len(removed) > 0 {
			select {
			case w.out <- ChildEvent{Added: added, Removed: removed}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Type == zk.EventNotWatching {
				log.Printf("⚠️ 子节点watch失效(%s)，自动重新安装", w.path)
			}
			// 继续循环，重新调用ChildrenW安装新watch
		}
	}
}
