package core

import (
	"context"
	"errors"
	"sync"
)

// ErrLifecycleStopped 停止后不能再次启动
var ErrLifecycleStopped = errors.New("core: lifecycle already stopped")

// Option 修改 Runtime 的函数，是框架唯一的扩展点
type Option func(rt *Runtime) error

// HostedService 具有启动和停止生命周期的托管服务
type HostedService interface {
	// Start 在独立的 Goroutine 中调用，允许阻塞。
	// 返回 error（context.Canceled 除外）时 Runtime 记录错误并开始关闭。
	Start(ctx context.Context) error

	// Stop 在应用关闭时调用，必须遵守 ctx 的超时。
	Stop(ctx context.Context) error
}

type hook func(context.Context) error

// LifecycleEvents 管理启动和停止钩子
// 状态单向变化：未启动 -> 已启动 -> 已停止，Stop 只执行一次
type LifecycleEvents struct {
	mu      sync.Mutex
	onStart []hook
	onStop  []hook

	started bool
	stopped bool
	stopErr error
}

// NewLifecycle 创建生命周期管理器
func NewLifecycle() *LifecycleEvents {
	return &LifecycleEvents{}
}

// OnStart 注册启动钩子，按注册顺序执行
func (l *LifecycleEvents) OnStart(fn func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStart = append(l.onStart, fn)
}

// OnStop 注册停止钩子，按注册的逆序执行
func (l *LifecycleEvents) OnStop(fn func(context.Context) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStop = append(l.onStop, fn)
}

// Start 执行启动钩子，遇到错误立即返回
// 已经执行过的钩子由调用方通过 Stop 回收
func (l *LifecycleEvents) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLifecycleStopped
	}
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	hooks := append([]hook(nil), l.onStart...)
	l.mu.Unlock()

	for _, fn := range hooks {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop 倒序执行停止钩子
// 单个钩子失败不中断其余钩子，所有错误合并返回。重复调用返回第一次的结果。
func (l *LifecycleEvents) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return l.stopErr
	}
	l.stopped = true
	hooks := append([]hook(nil), l.onStop...)
	l.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	l.mu.Lock()
	l.stopErr = errors.Join(errs...)
	l.mu.Unlock()
	return l.stopErr
}
