package core

import (
	"fmt"
	"sync"

	"github.com/gocrud/scopedproxy/di"
)

// Runtime 是框架的状态容器
type Runtime struct {
	// Features 存放构建时特性（配置、日志工厂等）
	Features FeatureCollection

	// Container 核心依赖注入容器
	Container di.Container

	// Lifecycle 生命周期管理
	Lifecycle *LifecycleEvents

	// shutdownCh 用于通知应用退出
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	errMu sync.Mutex
	err   error

	// ErrorHandler 用于记录运行时产生的严重错误
	// 外部可以通过设置此字段来接管错误日志
	ErrorHandler func(err error)
}

// NewRuntime 创建一个新的运行时实例
func NewRuntime() *Runtime {
	return &Runtime{
		Container:  di.NewContainer(),
		Lifecycle:  NewLifecycle(),
		shutdownCh: make(chan struct{}),
		ErrorHandler: func(err error) {
			fmt.Printf("[Runtime Error] %v\n", err)
		},
	}
}

// Shutdown 请求应用退出，可重复调用
func (rt *Runtime) Shutdown() {
	rt.shutdownOnce.Do(func() {
		close(rt.shutdownCh)
	})
}

// Fail 记录第一个致命错误并请求退出
func (rt *Runtime) Fail(err error) {
	if err == nil {
		return
	}

	rt.errMu.Lock()
	if rt.err == nil {
		rt.err = err
	}
	rt.errMu.Unlock()

	if rt.ErrorHandler != nil {
		rt.ErrorHandler(err)
	}
	rt.Shutdown()
}

// Err 返回 Fail 记录的第一个错误
func (rt *Runtime) Err() error {
	rt.errMu.Lock()
	defer rt.errMu.Unlock()
	return rt.err
}

// Done 返回一个通道，当应用需要退出时该通道会关闭
func (rt *Runtime) Done() <-chan struct{} {
	return rt.shutdownCh
}

// Provide 注册服务提供者 (语法糖)
func (rt *Runtime) Provide(target any, opts ...di.Option) error {
	_, err := di.Provide(rt.Container, target, opts...)
	return err
}

// Apply 应用多个 Option
func (rt *Runtime) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return err
		}
	}
	return nil
}
