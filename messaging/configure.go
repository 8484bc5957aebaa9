package messaging

import (
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/proxy"
)

// AddMessaging 注册 Messenger
//
// Service 以 Scoped 生命周期注册，代理作为单例装饰器包装它。
// 代理依赖 logging.LoggerFactory 和 proxy.Observer，二者缺失时 Build 失败。
func AddMessaging() core.Option {
	return func(rt *core.Runtime) error {
		err := di.Register[Messenger](rt.Container,
			di.WithScoped(),
			di.WithFactory(func(factory logging.LoggerFactory) Messenger {
				return NewService(factory.CreateLogger("messaging"))
			}),
		)
		if err != nil {
			return err
		}

		return di.Decorate[Messenger](rt.Container, func(
			scopes di.ScopeFactory,
			factory di.Factory[Messenger],
			loggers logging.LoggerFactory,
			observer proxy.Observer,
		) (Messenger, error) {
			return NewProxy(scopes, factory,
				proxy.WithName("messenger"),
				proxy.WithLogger(loggers.CreateLogger("proxy")),
				proxy.WithObserver(observer),
			)
		})
	}
}
