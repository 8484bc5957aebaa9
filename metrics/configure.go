package metrics

import (
	"context"

	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/proxy"
)

// AddMetrics 注册 Collector，同时作为 proxy.Observer 提供给代理
// 停止时输出一行汇总日志
func AddMetrics() core.Option {
	return func(rt *core.Runtime) error {
		collector := New()

		if err := di.Register[*Collector](rt.Container, di.WithValue(collector)); err != nil {
			return err
		}
		if err := di.Register[proxy.Observer](rt.Container, di.WithValue(collector)); err != nil {
			return err
		}

		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			snap, err := collector.Snapshot()
			if err != nil {
				return err
			}
			logging.FromRuntime(rt).CreateLogger("metrics").Info("proxy summary",
				logging.Field{Key: "scopes_opened", Value: snap.Opened},
				logging.Field{Key: "scopes_closed", Value: snap.Closed},
				logging.Field{Key: "calls_ok", Value: snap.Succeeded},
				logging.Field{Key: "calls_failed", Value: snap.Failed},
			)
			return nil
		})
		return nil
	}
}
