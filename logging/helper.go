package logging

import "io"

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole()
	factory := builder.Build()
	return factory.CreateLogger("default")
}

// NewWriterLogger 创建写入 w 的无颜色、无时间戳文本 Logger，输出稳定，便于断言
func NewWriterLogger(w io.Writer, category string) Logger {
	builder := NewLoggingBuilder()
	builder.AddConsole(ConsoleLoggerOptions{Output: w})
	return builder.Build().CreateLogger(category)
}

// Nop 返回丢弃所有输出的 Logger
func Nop() Logger {
	return NewWriterLogger(io.Discard, "")
}
