// Package demo 通过代理驱动一次演示调用序列
package demo

import (
	"context"
	"fmt"

	"github.com/gocrud/scopedproxy/config"
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/messaging"
)

// Settings 对应配置文件中的 demo 节
type Settings struct {
	Messages []string `json:"messages"`
	Mangle   string   `json:"mangle"`
	// KeepAlive 演示结束后继续运行，直到收到退出信号
	KeepAlive bool `json:"keepAlive"`
}

// DefaultSettings 默认演示参数
func DefaultSettings() Settings {
	return Settings{
		Messages: []string{"Hello", "World"},
		Mangle:   "Hi!",
	}
}

// Driver 持有解析得到的 Messenger（即代理）
type Driver struct {
	messenger messaging.Messenger
	logger    logging.Logger
	settings  Settings
}

// NewDriver 创建演示驱动
func NewDriver(messenger messaging.Messenger, logger logging.Logger, settings Settings) *Driver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Driver{messenger: messenger, logger: logger, settings: settings}
}

// Result 演示结果
type Result struct {
	Handled int
	Hashes  [2]int
}

// Drive 依次处理每条消息，再对同一消息调用两次 Mangle
// 任一调用出错立即返回该错误
func (d *Driver) Drive(ctx context.Context) (Result, error) {
	var result Result

	for _, msg := range d.settings.Messages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := d.messenger.Handle(msg); err != nil {
			return result, err
		}
		result.Handled++
	}

	for i := range result.Hashes {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		hash, err := d.messenger.Mangle(d.settings.Mangle)
		if err != nil {
			return result, err
		}
		result.Hashes[i] = hash
		d.logger.Info(fmt.Sprintf("mangle %s = %d", d.settings.Mangle, hash))
	}

	if result.Hashes[0] != result.Hashes[1] {
		return result, fmt.Errorf("demo: mangle is not deterministic: %d != %d", result.Hashes[0], result.Hashes[1])
	}
	return result, nil
}

// New 注册演示 Worker
// 演示结束后请求退出，除非配置了 keepAlive；出错时作为运行时错误上报
func New() core.Option {
	return func(rt *core.Runtime) error {
		settings, err := config.Section(config.FromRuntime(rt), "demo", DefaultSettings())
		if err != nil {
			return fmt.Errorf("demo: invalid settings: %w", err)
		}

		return core.WithWorker(func(ctx context.Context) error {
			messenger, err := di.Resolve[messaging.Messenger](rt.Container)
			if err != nil {
				return err
			}
			logger := logging.FromRuntime(rt).CreateLogger("demo")

			result, err := NewDriver(messenger, logger, settings).Drive(ctx)
			if err != nil {
				return err
			}
			logger.Info("demo finished", logging.Field{Key: "handled", Value: result.Handled})

			if !settings.KeepAlive {
				rt.Shutdown()
				return nil
			}
			<-ctx.Done()
			return nil
		})(rt)
	}
}
