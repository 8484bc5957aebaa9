package logging

import (
	"fmt"

	"github.com/fatih/color"
)

// TextFormatter 文本格式化器
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

// NewTextFormatter 创建文本格式化器
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
		ColorOutput:      false,
	}
}

// Format 格式化日志
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	buffer := GlobalBufferPool.Get()
	defer GlobalBufferPool.Put(buffer)

	// 时间戳
	if f.IncludeTimestamp {
		buffer.WriteString(entry.Time.Format(f.TimestampFormat))
		buffer.WriteByte(' ')
	}

	// 级别
	levelStr := entry.Level.String()
	if f.ColorOutput {
		buffer.WriteString(colorize(entry.Level, levelStr))
	} else {
		buffer.WriteString(levelStr)
	}

	// 类别
	if entry.Category != "" {
		buffer.WriteString(" [")
		buffer.WriteString(entry.Category)
		buffer.WriteString("]")
	}

	// 消息
	buffer.WriteByte(' ')
	buffer.WriteString(entry.Message)

	// 字段
	if len(entry.Fields) > 0 {
		buffer.WriteString(" {")
		for i, field := range entry.Fields {
			if i > 0 {
				buffer.WriteString(", ")
			}
			buffer.WriteString(field.Key)
			buffer.WriteByte('=')
			fmt.Fprintf(buffer, "%v", field.Value)
		}
		buffer.WriteByte('}')
	}

	buffer.WriteByte('\n')

	// 复制结果，buffer 由 defer 归还
	result := make([]byte, buffer.Len())
	copy(result, buffer.Bytes())
	return result, nil
}

var levelColors = map[LogLevel]*color.Color{
	LogLevelTrace: color.New(color.FgHiBlack),
	LogLevelDebug: color.New(color.FgCyan),
	LogLevelInfo:  color.New(color.FgGreen),
	LogLevelWarn:  color.New(color.FgYellow),
	LogLevelError: color.New(color.FgRed),
	LogLevelFatal: color.New(color.FgMagenta, color.Bold),
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	c, ok := levelColors[level]
	if !ok {
		return text
	}
	return c.Sprint(text)
}
