// Package cluster 实现跨Master的成员发现与failover协调，基于ZooKeeper
// 对接方式沿用 more-free-mesos_scheduler 中 ha.ZkLeaderElection / storage.ZkStorage 的用法习惯。
package cluster

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	zk "github.com/samuel/go-zookeeper/zk"
)

// CoordService 封装一个ZooKeeper连接，提供路径操作与分布式锁（对外导出）
type CoordService struct {
	conn *zk.Conn
	acl  []zk.ACL
	root string
}

// Dial 连接ZooKeeper集群，root是命名空间前缀（如 "/workflow-master"）
func Dial(servers []string, root string, sessionTimeout time.Duration) (*CoordService, <-chan zk.Event, error) {
	conn, events, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("连接ZooKeeper失败: %w", err)
	}
	root = strings.TrimSuffix(root, "/")
	cs := &CoordService{conn: conn, acl: zk.WorldACL(zk.PermAll), root: root}
	return cs, events, nil
}

// Close 断开连接
func (c *CoordService) Close() {
	c.conn.Close()
}

// Path 把相对路径拼接到命名空间根下
func (c *CoordService) Path(relative string) string {
	relative = strings.TrimPrefix(relative, "/")
	return c.root + "/" + relative
}

// EnsurePath 递归创建持久节点，已存在则忽略
func (c *CoordService) EnsurePath(path string) error {
	if path == "" || path == "/" {
		return nil
	}
	exists, _, err := c.conn.Exists(path)
	if err != nil {
		return fmt.Errorf("检查znode是否存在失败(%s): %w", path, err)
	}
	if exists {
		return nil
	}
	parent := path[:strings.LastIndex(path, "/")]
	if parent != "" {
		if err := c.EnsurePath(parent); err != nil {
			return err
		}
	}
	_, err = c.conn.Create(path, []byte{}, 0, c.acl)
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("创建znode失败(%s): %w", path, err)
	}
	return nil
}

// CreateEphemeral 在path创建一个临时节点，value会被JSON编码
func (c *CoordService) CreateEphemeral(path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	parent := path[:strings.LastIndex(path, "/")]
	if err := c.EnsurePath(parent); err != nil {
		return err
	}
	_, err = c.conn.Create(path, data, zk.FlagEphemeral, c.acl)
	if err == zk.ErrNodeExists {
		// 上一个session的残留节点尚未过期，直接覆盖内容（语义上等价于重新注册）
		_, statErr := c.conn.Set(path, data, -1)
		return statErr
	}
	if err != nil {
		return fmt.Errorf("创建临时znode失败(%s): %w", path, err)
	}
	return nil
}

// CreatePersistent 在path创建一个持久节点
func (c *CoordService) CreatePersistent(path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	parent := path[:strings.LastIndex(path, "/")]
	if err := c.EnsurePath(parent); err != nil {
		return err
	}
	_, err = c.conn.Create(path, data, 0, c.acl)
	if err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("创建持久znode失败(%s): %w", path, err)
	}
	return nil
}

// Get 读取path的值并反序列化到out
func (c *CoordService) Get(path string, out interface{}) error {
	data, _, err := c.conn.Get(path)
	if err != nil {
		return fmt.Errorf("读取znode失败(%s): %w", path, err)
	}
	return json.Unmarshal(data, out)
}

// Set 覆盖写入path的值
func (c *CoordService) Set(path string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = c.conn.Set(path, data, -1)
	if err != nil {
		return fmt.Errorf("写入znode失败(%s): %w", path, err)
	}
	return nil
}

// Exists 判断path是否存在
func (c *CoordService) Exists(path string) (bool, error) {
	exists, _, err := c.conn.Exists(path)
	if err != nil {
		return false, fmt.Errorf("检查znode失败(%s): %w", path, err)
	}
	return exists, nil
}

// Delete 删除path（忽略不存在的情况）
func (c *CoordService) Delete(path string) error {
	err := c.conn.Delete(path, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("删除znode失败(%s): %w", path, err)
	}
	return nil
}

// Children 列出path下的直接子节点
func (c *CoordService) Children(path string) ([]string, error) {
	children, _, err := c.conn.Children(path)
	if err != nil {
		return nil, fmt.Errorf("列出子节点失败(%s): %w", path, err)
	}
	return children, nil
}

// NewMutex 基于ZooKeeper锁方案返回一个分布式互斥锁（见zk.Lock：顺序临时子节点 + 监视前驱节点）
func (c *CoordService) NewMutex(path string) *zk.Lock {
	return zk.NewLock(c.conn, path, c.acl)
}
