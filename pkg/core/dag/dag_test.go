package dag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workflow-master/core/pkg/core/model"
	"github.com/workflow-master/core/pkg/core/types"
)

func taskNodeFixture(name string, deps ...string) *model.TaskNode {
	return &model.TaskNode{Name: name, Deps: deps}
}

func linearDefinition() string {
	nodes := []map[string]interface{}{
		{"name": "A", "deps": []string{}},
		{"name": "B", "deps": []string{"A"}},
		{"name": "C", "deps": []string{"B"}},
	}
	raw, _ := json.Marshal(nodes)
	return string(raw)
}

func diamondDefinition() string {
	nodes := []map[string]interface{}{
		{"name": "A", "deps": []string{}},
		{"name": "B", "deps": []string{"A"}},
		{"name": "C", "deps": []string{"A"}},
		{"name": "D", "deps": []string{"B", "C"}},
	}
	raw, _ := json.Marshal(nodes)
	return string(raw)
}

func TestGenerateFlowDag_FullGraphRoundTrip(t *testing.T) {
	pd, err := GenerateFlowDag(linearDefinition(), nil, nil, types.DependTypeAll)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B", "C"}, pd.Graph.NodeNames())
	assert.ElementsMatch(t, []string{"A"}, pd.Graph.GetRoots())

	children, err := pd.Graph.GetChildren("A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, children)
}

func TestGenerateFlowDag_ForwardSliceFromMidpoint(t *testing.T) {
	pd, err := GenerateFlowDag(diamondDefinition(), []string{"B"}, nil, types.DependTypeForward)
	require.NoError(t, err)

	// B 及其后代 D 应保留；A 和 C 不在前向切片内
	assert.ElementsMatch(t, []string{"B", "D"}, pd.Graph.NodeNames())
}

func TestGenerateFlowDag_BackwardSliceFromMidpoint(t *testing.T) {
	pd, err := GenerateFlowDag(diamondDefinition(), []string{"B"}, nil, types.DependTypeBackward)
	require.NoError(t, err)

	// B 及其祖先 A 应保留；C 和 D 不在后向切片内
	assert.ElementsMatch(t, []string{"A", "B"}, pd.Graph.NodeNames())
}

func TestGenerateFlowDag_PrunesDisabledNodes(t *testing.T) {
	nodes := []map[string]interface{}{
		{"name": "A", "deps": []string{}},
		{"name": "B", "deps": []string{"A"}, "disabled": true},
		{"name": "C", "deps": []string{"B"}},
	}
	raw, _ := json.Marshal(nodes)

	pd, err := GenerateFlowDag(string(raw), nil, nil, types.DependTypeAll)
	require.NoError(t, err)

	assert.Contains(t, pd.ForbiddenTasks, "B")
	assert.ElementsMatch(t, []string{"A", "C"}, pd.Graph.NodeNames())
	// C原本依赖B，B被禁用后C应不再携带这条悬空依赖
	cNode, ok := pd.Graph.GetNode("C")
	require.True(t, ok)
	assert.Empty(t, cNode.Deps)
}

func TestDAG_DetectCycle(t *testing.T) {
	d := NewDAG()
	require.NoError(t, d.AddNode(taskNodeFixture("A")))
	require.NoError(t, d.AddNode(taskNodeFixture("B", "A")))
	require.NoError(t, d.DetectCycle())
}
