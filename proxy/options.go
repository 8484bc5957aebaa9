package proxy

import (
	"github.com/gocrud/scopedproxy/logging"
)

type options struct {
	name     string
	observer Observer
	logger   logging.Logger
}

func defaultOptions(name string) *options {
	return &options{
		name:     name,
		observer: NopObserver(),
		logger:   logging.Nop(),
	}
}

// Option 代理选项
type Option func(*options)

// WithName 设置代理名称，用于日志和指标，默认是目标类型名
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver 设置调用观察者
func WithObserver(observer Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}
