package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailPlugin_BuildSubject_UsesDataSubject(t *testing.T) {
	e := &EmailPlugin{}
	data := PluginData{Event: "cluster.alert", Data: map[string]interface{}{"subject": "Worker失联: host1"}}

	assert.Equal(t, "Worker失联: host1", e.buildSubject(data))
}

func TestEmailPlugin_BuildSubject_FallsBackToEventWhenNoSubject(t *testing.T) {
	e := &EmailPlugin{}
	data := PluginData{Event: "cluster.alert"}

	assert.Equal(t, "[系统通知] cluster.alert", e.buildSubject(data))
}

func TestEmailPlugin_BuildBody_IncludesBodyAndExtraData(t *testing.T) {
	e := &EmailPlugin{}
	data := PluginData{
		Event: "cluster.alert",
		Data: map[string]interface{}{
			"subject": "ignored in body",
			"body":    "第1次告警",
			"host":    "host1",
		},
	}

	body := e.buildBody(data)

	assert.Contains(t, body, "第1次告警")
	assert.Contains(t, body, "host: host1")
	assert.NotContains(t, body, "subject:")
}
