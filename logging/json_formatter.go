package logging

import (
	"encoding/json"
)

// JsonFormatter JSON 格式化器，每条日志一行
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	}
}

// jsonEntry 固定字段顺序，便于按行检索
type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// Format 格式化日志
func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}

	if len(entry.Fields) > 0 {
		data.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			data.Fields[field.Key] = field.Value
		}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
