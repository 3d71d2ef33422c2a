package alert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/workflow-master/core/pkg/plugin"
)

// WebhookPlugin 把告警以JSON POST到一个外部URL（如企业IM的机器人webhook）
// 语料库内没有出现第三方HTTP客户端依赖，这里用net/http是唯一可行选择
type WebhookPlugin struct {
	url    string
	client *http.Client
}

// NewWebhookPlugin 创建Webhook告警插件
func NewWebhookPlugin() plugin.Plugin {
	return &WebhookPlugin{client: &http.Client{Timeout: 5 * time.Second}}
}

// Name 插件名称
func (p *WebhookPlugin) Name() string {
	return "webhook"
}

// Init 读取目标URL
func (p *WebhookPlugin) Init(params map[string]string) error {
	p.url = params["url"]
	if p.url == "" {
		return fmt.Errorf("url参数不能为空")
	}
	return nil
}

// Execute 发送POST请求
func (p *WebhookPlugin) Execute(data interface{}) error {
	pd, ok := data.(plugin.PluginData)
	if !ok {
		return fmt.Errorf("告警数据类型错误")
	}
	payload, err := json.Marshal(map[string]interface{}{
		"subject": pd.Data["subject"],
		"body":    pd.Data["body"],
	})
	if err != nil {
		return err
	}
	resp, err := p.client.Post(p.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Printf("❌ [WebhookPlugin] 发送失败: %v", err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook返回非成功状态码: %d", resp.StatusCode)
	}
	return nil
}
