// Package schedule 按 cron 表达式周期性地通过代理处理消息
package schedule

import (
	"fmt"

	"github.com/gocrud/scopedproxy/config"
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/messaging"
	"github.com/robfig/cron/v3"
)

// Settings 对应配置文件中的 scheduler 节
type Settings struct {
	Enabled bool   `json:"enabled"`
	Spec    string `json:"spec"`
	Message string `json:"message"`
	// Seconds 表达式包含秒字段
	Seconds bool `json:"seconds"`
	// Verbose 输出 cron 库的调度日志
	Verbose bool `json:"verbose"`
}

// DefaultSettings 默认关闭
func DefaultSettings() Settings {
	return Settings{
		Spec:    "@every 10s",
		Message: "tick",
	}
}

// Validate 检查 cron 表达式
func (s Settings) Validate() error {
	if _, err := parser(s.Seconds).Parse(s.Spec); err != nil {
		return fmt.Errorf("schedule: invalid spec '%s': %w", s.Spec, err)
	}
	return nil
}

func parser(seconds bool) cron.Parser {
	if seconds {
		return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	}
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// New 读取 scheduler 配置节，启用时注册定时托管服务
// 表达式无效时在装配阶段返回错误
func New() core.Option {
	return func(rt *core.Runtime) error {
		settings, err := config.Section(config.FromRuntime(rt), "scheduler", DefaultSettings())
		if err != nil {
			return fmt.Errorf("schedule: invalid settings: %w", err)
		}
		if !settings.Enabled {
			return nil
		}
		if err := settings.Validate(); err != nil {
			return err
		}

		return core.WithHostedService(func(messenger messaging.Messenger, loggers logging.LoggerFactory) *Service {
			return NewService(messenger, loggers.CreateLogger("schedule"), settings)
		})(rt)
	}
}
