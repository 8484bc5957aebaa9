// Package proxy 提供按调用创建作用域的通用代理。
//
// 每次调用都会开启新作用域，用 Factory 在其中解析一个新实例，执行操作，
// 然后释放作用域。实例不会跨调用存活，并发调用之间互不共享实例。
package proxy

import (
	"errors"
	"fmt"

	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
)

// ErrNoFactory 创建代理时没有提供 Factory
var ErrNoFactory = errors.New("proxy: no factory for the proxied service")

// Proxy 持有作用域策略和目标服务的 Factory，自身无其它状态，可被并发使用
type Proxy[T any] struct {
	name     string
	scopes   di.ScopeFactory
	factory  di.Factory[T]
	observer Observer
	logger   logging.Logger
}

// New 创建代理
func New[T any](scopes di.ScopeFactory, factory di.Factory[T], opts ...Option) (*Proxy[T], error) {
	if scopes == nil {
		return nil, di.ErrNoScopeStrategy
	}
	if factory == nil {
		return nil, ErrNoFactory
	}

	options := defaultOptions(di.TypeOf[T]().String())
	for _, opt := range opts {
		opt(options)
	}

	return &Proxy[T]{
		name:     options.name,
		scopes:   scopes,
		factory:  factory,
		observer: options.observer,
		logger:   options.logger.WithFields(logging.Field{Key: "proxy", Value: options.name}),
	}, nil
}

// Name 返回代理名称
func (p *Proxy[T]) Name() string {
	return p.name
}

// Invoke 在新作用域中对新实例执行 action
//
// action 返回的错误原样返回。作用域在返回前释放，action 出错或 panic 时也一样。
// 释放出错时，只有 action 成功才返回释放错误，否则记录后丢弃。
func (p *Proxy[T]) Invoke(action func(T) error) (err error) {
	scope, err := di.BeginScope(p.scopes)
	if err != nil {
		return fmt.Errorf("proxy %s: begin scope: %w", p.name, err)
	}
	p.observer.ScopeOpened(p.name)

	defer func() {
		disposeErr := scope.Dispose()
		p.observer.ScopeClosed(p.name)
		if disposeErr == nil {
			return
		}
		if err == nil {
			err = fmt.Errorf("proxy %s: dispose scope: %w", p.name, disposeErr)
			return
		}
		p.logger.Warn("dispose failed after operation error", logging.Field{Key: "error", Value: disposeErr.Error()})
	}()

	instance, err := p.factory(scope)
	if err != nil {
		return fmt.Errorf("proxy %s: resolve: %w", p.name, err)
	}

	err = action(instance)
	p.observer.CallCompleted(p.name, err)
	return err
}

// Call 与 Invoke 相同，另外返回 fn 的结果
// 结果在作用域释放之前取得。
func Call[T, R any](p *Proxy[T], fn func(T) (R, error)) (R, error) {
	var result R
	err := p.Invoke(func(instance T) error {
		var err error
		result, err = fn(instance)
		return err
	})
	return result, err
}
