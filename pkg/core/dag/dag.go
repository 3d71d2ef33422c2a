// Package dag 用 begmaroman/go-dag 承载 ProcessInstance 的静态依赖图。
// DagEngine 自身只关心节点名称、双向邻接关系和拓扑序，具体的环检测/遍历交给库实现。
package dag

import (
	"fmt"

	godag "github.com/begmaroman/go-dag"

	"github.com/workflow-master/core/pkg/core/model"
)

// node 包装 *model.TaskNode 以满足 go-dag 的 Identifiable 接口
type node struct {
	*model.TaskNode
}

// ID 实现 godag.Identifiable
func (n *node) ID() string {
	return n.Name
}

// DAG 是剪除禁用节点之后的静态依赖图（对外导出）
type DAG struct {
	g         *godag.DAG[*node]
	nodeNames []string // 插入顺序，遍历tie-break用
}

// NewDAG 创建空DAG
func NewDAG() *DAG {
	return &DAG{g: godag.NewDAG[*node]()}
}

// AddNode 添加一个TaskNode及其到已存在的deps的边
func (d *DAG) AddNode(n *model.TaskNode) error {
	v := &node{TaskNode: n}
	if _, err := d.g.AddVertex(v); err != nil {
		return fmt.Errorf("添加节点 %s 失败: %w", n.Name, err)
	}
	d.nodeNames = append(d.nodeNames, n.Name)
	for _, dep := range n.Deps {
		if err := d.g.AddEdge(dep, n.Name); err != nil {
			return fmt.Errorf("添加边 %s -> %s 失败: %w", dep, n.Name, err)
		}
	}
	return nil
}

// GetNode 按名称取节点
func (d *DAG) GetNode(name string) (*model.TaskNode, bool) {
	v, err := d.g.GetVertex(name)
	if err != nil {
		return nil, false
	}
	return v.TaskNode, true
}

// GetChildren 返回直接后继节点名称列表，顺序为插入顺序
func (d *DAG) GetChildren(name string) ([]string, error) {
	children, err := d.g.GetChildren(name)
	if err != nil {
		return nil, err
	}
	return d.orderedNames(children), nil
}

// GetParents 返回直接前驱节点名称列表，顺序为插入顺序
func (d *DAG) GetParents(name string) ([]string, error) {
	parents, err := d.g.GetParents(name)
	if err != nil {
		return nil, err
	}
	return d.orderedNames(parents), nil
}

// GetRoots 返回所有入度为0的节点（源节点），按插入顺序
func (d *DAG) GetRoots() []string {
	var roots []string
	for _, name := range d.nodeNames {
		parents, err := d.g.GetParents(name)
		if err == nil && len(parents) == 0 {
			roots = append(roots, name)
		}
	}
	return roots
}

// NodeNames 返回所有节点名称，插入顺序
func (d *DAG) NodeNames() []string {
	return append([]string(nil), d.nodeNames...)
}

// DetectCycle 检测环；spec要求DAG必须无环
func (d *DAG) DetectCycle() error {
	for _, name := range d.nodeNames {
		if err := d.hasPathBack(name, name, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

// hasPathBack 沿子节点深度优先查找是否能回到origin，用于环检测的兜底实现
// （go-dag 的 AddEdge 在大多数版本里已经拒绝成环的边；这里是一层额外的保险）
func (d *DAG) hasPathBack(origin, current string, visited map[string]bool) error {
	children, err := d.g.GetChildren(current)
	if err != nil {
		return nil
	}
	for childID := range children {
		if childID == origin {
			return fmt.Errorf("检测到环: %s -> ... -> %s", origin, origin)
		}
		if visited[childID] {
			continue
		}
		visited[childID] = true
		if err := d.hasPathBack(origin, childID, visited); err != nil {
			return err
		}
	}
	return nil
}

// orderedNames 把go-dag返回的 map[string]godag.VHash 按本DAG的插入顺序排列，
// 保证 spec §5 "tie-break是insertion order"的遍历约定
func (d *DAG) orderedNames(m map[string]godag.VHash) []string {
	set := make(map[string]bool, len(m))
	for id := range m {
		set[id] = true
	}
	var out []string
	for _, name := range d.nodeNames {
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}
