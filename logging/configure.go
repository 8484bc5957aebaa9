package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/gocrud/scopedproxy/config"
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
)

// Settings 对应配置文件中的 logging 节
type Settings struct {
	Level  string `json:"level"`
	Format string `json:"format"` // text 或 json
	Color  bool   `json:"color"`
}

// DefaultSettings 默认日志配置
func DefaultSettings() Settings {
	return Settings{
		Level:  "info",
		Format: "text",
		Color:  true,
	}
}

type configureOptions struct {
	output    io.Writer
	timestamp bool
}

// ConfigureOption 日志装配选项
type ConfigureOption func(*configureOptions)

// WithOutput 指定日志输出，默认标准输出
func WithOutput(w io.Writer) ConfigureOption {
	return func(o *configureOptions) {
		o.output = w
	}
}

// WithoutTimestamp 关闭时间戳，输出便于比对
func WithoutTimestamp() ConfigureOption {
	return func(o *configureOptions) {
		o.timestamp = false
	}
}

// Configure 按 logging 配置节创建 LoggerFactory
// LoggerFactory 和名为 app 的 Logger 会注册到容器，并作为 Runtime Feature 供其它 Option 使用
func Configure(opts ...ConfigureOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &configureOptions{output: os.Stdout, timestamp: true}
		for _, opt := range opts {
			opt(options)
		}

		settings, err := config.Section(config.FromRuntime(rt), "logging", DefaultSettings())
		if err != nil {
			return fmt.Errorf("logging: invalid settings: %w", err)
		}

		builder := NewLoggingBuilder()
		if err := builder.AddSettings(settings, options.output, options.timestamp); err != nil {
			return err
		}
		factory := builder.Build()
		logger := factory.CreateLogger("app")

		if err := di.Register[LoggerFactory](rt.Container, di.WithValue(factory)); err != nil {
			return err
		}
		if err := di.Register[Logger](rt.Container, di.WithValue(logger)); err != nil {
			return err
		}
		core.SetFeature[LoggerFactory](rt, factory)

		// 运行时错误改由日志输出
		rt.ErrorHandler = func(err error) {
			logger.Error("runtime error", Field{Key: "error", Value: err.Error()})
		}
		return nil
	}
}

// FromRuntime 获取已装配的 LoggerFactory，未装配时返回丢弃输出的工厂
func FromRuntime(rt *core.Runtime) LoggerFactory {
	if factory, ok := core.GetFeature[LoggerFactory](rt); ok {
		return factory
	}
	return NewLoggingBuilder().AddConsole(ConsoleLoggerOptions{Output: io.Discard}).Build()
}
