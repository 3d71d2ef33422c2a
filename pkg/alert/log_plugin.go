package alert

import (
	"fmt"
	"log"

	"github.com/workflow-master/core/pkg/plugin"
)

// LogPlugin 把告警写入标准日志，总是启用，是其他通道失败时的最后兜底
type LogPlugin struct{}

// NewLogPlugin 创建日志告警插件
func NewLogPlugin() plugin.Plugin {
	return &LogPlugin{}
}

// Name 插件名称
func (p *LogPlugin) Name() string {
	return "log"
}

// Init 日志插件无需任何参数
func (p *LogPlugin) Init(params map[string]string) error {
	return nil
}

// Execute 把告警内容打到日志
func (p *LogPlugin) Execute(data interface{}) error {
	pd, ok := data.(plugin.PluginData)
	if !ok {
		return fmt.Errorf("告警数据类型错误")
	}
	subject, _ := pd.Data["subject"].(string)
	body, _ := pd.Data["body"].(string)
	log.Printf("🔔 [ALERT] %s — %s", subject, body)
	return nil
}
