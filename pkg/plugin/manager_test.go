package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	name    string
	execErr error
	calls   int
}

func (p *fakePlugin) Name() string { return p.name }
func (p *fakePlugin) Init(params map[string]string) error { return nil }
func (p *fakePlugin) Execute(data interface{}) error {
	p.calls++
	return p.execErr
}

func TestPluginManager_RegisterBindTrigger(t *testing.T) {
	pm := NewPluginManager()
	p := &fakePlugin{name: "log"}
	require.NoError(t, pm.Register(p))
	require.NoError(t, pm.Bind(PluginBinding{PluginName: "log", Event: "cluster.alert"}))

	require.NoError(t, pm.Trigger(context.Background(), "cluster.alert", PluginData{Event: "cluster.alert"}))
	assert.Equal(t, 1, p.calls)
}

func TestPluginManager_TriggerWithNoBindingIsNoOp(t *testing.T) {
	pm := NewPluginManager()
	require.NoError(t, pm.Trigger(context.Background(), "cluster.alert", PluginData{}))
}

func TestPluginManager_Unregister_RemovesBindings(t *testing.T) {
	pm := NewPluginManager()
	p := &fakePlugin{name: "log"}
	require.NoError(t, pm.Register(p))
	require.NoError(t, pm.Bind(PluginBinding{PluginName: "log", Event: "cluster.alert"}))
	require.NoError(t, pm.Unregister("log"))

	require.NoError(t, pm.Trigger(context.Background(), "cluster.alert", PluginData{}))
	assert.Equal(t, 0, p.calls)
}
