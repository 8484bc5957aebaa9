package logging

import (
	"time"
)

// Formatter 将日志条目编码为一行输出
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 一条日志
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// newFormatter 按控制台选项选择 JSON 或文本格式
func newFormatter(options ConsoleLoggerOptions) Formatter {
	if options.JSON {
		return NewJsonFormatter()
	}

	text := NewTextFormatter()
	text.IncludeTimestamp = options.IncludeTimestamp
	if options.TimestampFormat != "" {
		text.TimestampFormat = options.TimestampFormat
	}
	text.ColorOutput = options.ColorOutput
	return text
}
