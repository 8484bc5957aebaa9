package scopedproxy

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/scopedproxy/core"
)

// shutdownTimeout 优雅关闭的超时时间
const shutdownTimeout = 5 * time.Second

// Run 启动应用程序并阻塞到退出
// 返回 Build 阶段的组装错误，或运行期间记录的第一个致命错误
func Run(opts ...core.Option) error {
	rt := core.NewRuntime()

	// 1. Bootstrap (应用所有选项)
	// 这一步会注册服务、装饰器并添加生命周期钩子
	if err := rt.Apply(opts...); err != nil {
		return err
	}

	// 2. Build DI Container (急切验证依赖图，组装错误在任何操作之前终止)
	if err := rt.Container.Build(); err != nil {
		return err
	}

	// 3. Start Lifecycle (启动生命周期)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rt.Lifecycle.Start(ctx); err != nil {
		// 回收已经启动的服务
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		return errors.Join(err, rt.Lifecycle.Stop(stopCtx))
	}

	// 4. 阻塞并监听退出信号
	// 支持 OS 信号 (Ctrl+C, kill) 和 Runtime 内部触发的退出 (rt.Shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case <-rt.Done():
	}

	// 5. Graceful Shutdown (优雅关闭)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	stopErr := rt.Lifecycle.Stop(shutdownCtx)
	if err := rt.Err(); err != nil {
		return err
	}
	return stopErr
}
