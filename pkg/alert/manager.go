// Package alert 把failover/超时等事件通过pkg/plugin的触发机制分发给各个告警通道。
package alert

import (
	"context"
	"fmt"

	"github.com/workflow-master/core/pkg/plugin"
)

// eventAlert 是本包私有使用的触发事件，不与workflow/task生命周期事件混用
const eventAlert plugin.TriggerEvent = "cluster.alert"

// Config 描述需要启用哪些告警通道
type Config struct {
	Email   *EmailConfig
	Webhook *WebhookConfig
}

// EmailConfig 邮件通道配置
type EmailConfig struct {
	SMTPHost string
	SMTPPort int
	Username string
	Password string
	From     string
	To       []string
}

// WebhookConfig Webhook通道配置
type WebhookConfig struct {
	URL string
}

// Manager 是cluster.Alerter的落地实现：对外只有一个Alert方法，内部按配置fan-out到多个Plugin
type Manager struct {
	pm plugin.PluginManager
}

// New 按配置构造Manager，LogPlugin总是注册，Email/Webhook按配置是否给出决定
func New(cfg Config) (*Manager, error) {
	pm := plugin.NewPluginManager()

	if err := pm.RegisterWithInit(NewLogPlugin(), nil); err != nil {
		return nil, fmt.Errorf("注册日志告警插件失败: %w", err)
	}
	if err := pm.Bind(plugin.PluginBinding{PluginName: "log", Event: eventAlert}); err != nil {
		return nil, err
	}

	if cfg.Email != nil {
		params := map[string]string{
			"smtp_host": cfg.Email.SMTPHost,
			"smtp_port": fmt.Sprintf("%d", cfg.Email.SMTPPort),
			"username":  cfg.Email.Username,
			"password":  cfg.Email.Password,
			"from":      cfg.Email.From,
			"to":        joinComma(cfg.Email.To),
		}
		if err := pm.RegisterWithInit(plugin.NewEmailPlugin(), params); err != nil {
			return nil, fmt.Errorf("注册邮件告警插件失败: %w", err)
		}
		if err := pm.Bind(plugin.PluginBinding{PluginName: "email", Event: eventAlert}); err != nil {
			return nil, err
		}
	}

	if cfg.Webhook != nil {
		if err := pm.RegisterWithInit(NewWebhookPlugin(), map[string]string{"url": cfg.Webhook.URL}); err != nil {
			return nil, fmt.Errorf("注册Webhook告警插件失败: %w", err)
		}
		if err := pm.Bind(plugin.PluginBinding{PluginName: "webhook", Event: eventAlert}); err != nil {
			return nil, err
		}
	}

	return &Manager{pm: pm}, nil
}

// Alert 向所有已绑定的告警通道广播一条告警（实现 cluster.Alerter）
func (m *Manager) Alert(ctx context.Context, subject, body string) error {
	return m.pm.Trigger(ctx, eventAlert, plugin.PluginData{
		Event:  eventAlert,
		Status: "ALERT",
		Data: map[string]interface{}{
			"subject": subject,
			"body":    body,
		},
	})
}

func joinComma(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += ","
		}
		out += it
	}
	return out
}
