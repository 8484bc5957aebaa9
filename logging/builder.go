package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// LoggingBuilder 收集日志提供者和最低级别，Build 后得到 LoggerFactory
type LoggingBuilder struct {
	mu           sync.Mutex
	providers    []LoggerProvider
	minimumLevel LogLevel
}

// NewLoggingBuilder 默认级别为 Info，没有提供者
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{minimumLevel: LogLevelInfo}
}

// SetMinimumLevel 同时作用于已添加的提供者
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	for _, provider := range b.providers {
		provider.SetMinimumLevel(level)
	}
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	provider.SetMinimumLevel(b.minimumLevel)
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台提供者
// 不传选项时写标准输出，带时间戳和颜色
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		ColorOutput:      true,
		Output:           os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddSettings 按配置设置级别并添加一个控制台提供者
func (b *LoggingBuilder) AddSettings(settings Settings, output io.Writer, timestamp bool) error {
	level, err := ParseLevel(settings.Level)
	if err != nil {
		return err
	}

	var jsonOutput bool
	switch settings.Format {
	case "", "text":
	case "json":
		jsonOutput = true
	default:
		return fmt.Errorf("logging: unknown format %q", settings.Format)
	}

	b.SetMinimumLevel(level)
	b.AddConsole(ConsoleLoggerOptions{
		IncludeTimestamp: timestamp,
		TimestampFormat:  "2006-01-02 15:04:05.000",
		ColorOutput:      settings.Color,
		JSON:             jsonOutput,
		Output:           output,
	})
	return nil
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.Lock()
	defer b.mu.Unlock()

	factory := &loggerFactory{
		providers:    make([]LoggerProvider, 0, len(b.providers)),
		minimumLevel: b.minimumLevel,
	}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	return factory
}
