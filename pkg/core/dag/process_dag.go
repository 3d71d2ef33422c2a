package dag

import (
	"encoding/json"
	"fmt"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
)

// ProcessDag 是给定起点/恢复点切片后的子图（对外导出），对应 spec §3 "ProcessDag"
type ProcessDag struct {
	Graph           *DAG
	ForbiddenTasks  []string // 定义中被禁用、已被剪除的节点名称
}

// GenerateFlowDag 解析definitionJSON为完整DAG，按(startNodeNames, recoveryNodeNames, depType)
// 切片出实际要执行的子图，并剔除被禁用的节点。对应 spec §4.1 prepareProcess() 中的同名调用
func GenerateFlowDag(definitionJSON string, startNodeNames, recoveryNodeNames []string, depType types.TaskDependType) (*ProcessDag, error) {
	var defs []model.TaskNode
	if err := json.Unmarshal([]byte(definitionJSON), &defs); err != nil {
		return nil, fmt.Errorf("解析DAG定义失败: %w", err)
	}

	full := NewDAG()
	var forbidden []string
	enabled := make(map[string]bool, len(defs))
	for i := range defs {
		n := defs[i]
		if n.Disabled {
			forbidden = append(forbidden, n.Name)
			continue
		}
		enabled[n.Name] = true
	}
	for i := range defs {
		n := defs[i]
		if !enabled[n.Name] {
			continue
		}
		// 过滤掉指向被禁用父节点的依赖边，避免AddEdge对不存在的源节点报错
		var deps []string
		for _, dep := range n.Deps {
			if enabled[dep] {
				deps = append(deps, dep)
			}
		}
		clone := n.Clone()
		clone.Deps = deps
		if err := full.AddNode(clone); err != nil {
			return nil, err
		}
	}
	if err := full.DetectCycle(); err != nil {
		return nil, err
	}

	seed := dedupe(append(append([]string{}, startNodeNames...), recoveryNodeNames...))
	if len(seed) == 0 {
		// 未指定起点/恢复点：整图即为要执行的子图
		return &ProcessDag{Graph: full, ForbiddenTasks: forbidden}, nil
	}

	included := map[string]bool{}
	for _, s := range seed {
		if _, ok := full.GetNode(s); !ok {
			continue
		}
		included[s] = true
		if depType == types.DependTypeAll || depType == types.DependTypeForward {
			collectDescendants(full, s, included)
		}
		if depType == types.DependTypeAll || depType == types.DependTypeBackward {
			collectAncestors(full, s, included)
		}
	}

	sliced := NewDAG()
	for _, name := range full.NodeNames() {
		if !included[name] {
			continue
		}
		orig, _ := full.GetNode(name)
		clone := orig.Clone()
		var deps []string
		for _, dep := range orig.Deps {
			if included[dep] {
				deps = append(deps, dep)
			}
		}
		clone.Deps = deps
		if err := sliced.AddNode(clone); err != nil {
			return nil, err
		}
	}

	return &ProcessDag{Graph: sliced, ForbiddenTasks: forbidden}, nil
}

func collectDescendants(d *DAG, start string, into map[string]bool) {
	children, err := d.GetChildren(start)
	if err != nil {
		return
	}
	for _, c := range children {
		if into[c] {
			continue
		}
		into[c] = true
		collectDescendants(d, c, into)
	}
}

func collectAncestors(d *DAG, start string, into map[string]bool) {
	parents, err := d.GetParents(start)
	if err != nil {
		return
	}
	for _, p := range parents {
		if into[p] {
			continue
		}
		into[p] = true
		collectAncestors(d, p, into)
	}
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
