package messaging

import (
	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/proxy"
)

// messengerProxy 每次调用都在新作用域中创建 Service
type messengerProxy struct {
	proxy *proxy.Proxy[Messenger]
}

// NewProxy 创建 Messenger 的代理
func NewProxy(scopes di.ScopeFactory, factory di.Factory[Messenger], opts ...proxy.Option) (Messenger, error) {
	p, err := proxy.New(scopes, factory, opts...)
	if err != nil {
		return nil, err
	}
	return &messengerProxy{proxy: p}, nil
}

func (m *messengerProxy) Handle(msg string) error {
	return m.proxy.Invoke(func(s Messenger) error {
		return s.Handle(msg)
	})
}

func (m *messengerProxy) Mangle(msg string) (int, error) {
	return proxy.Call(m.proxy, func(s Messenger) (int, error) {
		return s.Mangle(msg)
	})
}
