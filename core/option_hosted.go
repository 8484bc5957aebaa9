package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/gocrud/scopedproxy/di"
)

var hostedServiceType = reflect.TypeOf((*HostedService)(nil)).Elem()

// WithHostedService 注册一个托管服务
// constructor 的返回值必须实现 HostedService，依赖由容器注入。
// 框架会在 OnStart 时启动 Goroutine 调用 Start，在 OnStop 时调用 Stop。
func WithHostedService(constructor any) Option {
	return func(rt *Runtime) error {
		// 1. 注册服务
		serviceType, err := di.Provide(rt.Container, constructor)
		if err != nil {
			return fmt.Errorf("WithHostedService: failed to provide service: %w", err)
		}

		// 2. 验证接口
		if !serviceType.Implements(hostedServiceType) {
			return fmt.Errorf("WithHostedService: service %v does not implement core.HostedService", serviceType)
		}

		var serviceCancel context.CancelFunc

		// 3. 注册生命周期
		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			val, err := rt.Container.Get(serviceType)
			if err != nil {
				return fmt.Errorf("failed to resolve hosted service %v: %w", serviceType, err)
			}

			// 服务上下文伴随应用运行，不随启动 ctx 结束
			var serviceCtx context.Context
			serviceCtx, serviceCancel = context.WithCancel(context.Background())

			go func() {
				err := val.(HostedService).Start(serviceCtx)
				if err != nil && !errors.Is(err, context.Canceled) {
					rt.Fail(fmt.Errorf("HostedService %v exited with error: %w", serviceType, err))
				}
			}()
			return nil
		})

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			if serviceCancel == nil {
				return nil // 从未启动
			}
			serviceCancel()

			val, err := rt.Container.Get(serviceType)
			if err != nil {
				return nil
			}
			return val.(HostedService).Stop(ctx)
		})

		return nil
	}
}

// WorkerFunc 定义简单的后台任务函数
// 这是一个阻塞函数，通过 ctx.Done() 判断退出。
type WorkerFunc func(ctx context.Context) error

// WithWorker 将一个阻塞的函数注册为后台服务
// 框架会自动将其适配为 HostedService (异步启动，Cancel停止)
func WithWorker(fn WorkerFunc) Option {
	return func(rt *Runtime) error {
		var workerCancel context.CancelFunc
		done := make(chan struct{})

		rt.Lifecycle.OnStart(func(ctx context.Context) error {
			var workerCtx context.Context
			workerCtx, workerCancel = context.WithCancel(context.Background())

			go func() {
				defer close(done)
				if err := fn(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
					rt.Fail(fmt.Errorf("Worker exited with error: %w", err))
				}
			}()
			return nil
		})

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			if workerCancel == nil {
				return nil
			}
			workerCancel()

			// 等待 worker 退出或超时
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		return nil
	}
}
