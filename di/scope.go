package di

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
)

// Scope 表示作用域生命周期上下文。
//
// 状态只会单向变化：创建后处于活动状态，Dispose 之后结束。
// 结束后的作用域不能再解析服务。
type Scope interface {
	Resolver
	// Dispose 按创建的逆序关闭作用域内创建的 io.Closer 实例。
	// 只有第一次调用会执行关闭，之后返回同样的结果。
	Dispose() error
}

// BeginScope 通过作用域策略开启一个新作用域。
func BeginScope(sf ScopeFactory) (Scope, error) {
	if sf == nil {
		return nil, ErrNoScopeStrategy
	}
	return sf.CreateScope()
}

type scopeEntry struct {
	val atomic.Value // 存储实例（如果尚未创建则为 nil）
	mu  sync.Mutex   // 用于创建此特定实例的锁
}

type scope struct {
	parent  *container
	entries []scopeEntry // 按 ServiceDefinition.ID 索引的数组

	mu       sync.Mutex
	closers  []io.Closer
	disposed atomic.Bool

	disposeOnce sync.Once
	disposeErr  error
}

func newScope(parent *container) *scope {
	return &scope{
		parent:  parent,
		entries: make([]scopeEntry, parent.serviceCount()),
	}
}

// Get 解析服务。被装饰的类型返回装饰器单例。
func (s *scope) Get(typ reflect.Type) (any, error) {
	if s.disposed.Load() {
		return nil, ErrScopeDisposed
	}

	if inst, ok, err := s.parent.builtin(typ); ok {
		return inst, err
	}

	def, ok := s.parent.definitions[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, typ)
	}

	if def.Decorator != nil {
		return s.parent.decorated(def)
	}
	return s.inner(def)
}

// inner 按生命周期解析 def 本身的实现，不经过装饰器。
func (s *scope) inner(def *ServiceDefinition) (any, error) {
	if s.disposed.Load() {
		return nil, ErrScopeDisposed
	}

	switch def.Scope {
	case ScopeSingleton:
		return s.parent.singleton(def)

	case ScopeTransient:
		// 使用此作用域作为容器创建新实例，依赖项也在本作用域内解析
		instance, err := s.parent.resolver.createInstance(s, def.Impl, def.IsValue, def.Schema)
		if err != nil {
			return nil, err
		}
		return instance, s.track(instance)

	case ScopeScoped:
		if def.ID < 0 || def.ID >= len(s.entries) {
			return nil, fmt.Errorf("di: 内部错误，无效的服务 ID %d", def.ID)
		}

		// 切片大小在创建后固定，此指针是稳定的。
		entry := &s.entries[def.ID]

		// 快速路径：检查是否已创建
		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		// 慢速路径：带锁创建
		entry.mu.Lock()
		defer entry.mu.Unlock()

		// 双重检查
		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		instance, err := s.parent.resolver.createInstance(s, def.Impl, def.IsValue, def.Schema)
		if err != nil {
			return nil, err
		}
		if err := s.track(instance); err != nil {
			return nil, err
		}

		entry.val.Store(instance)
		return instance, nil
	}

	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

// track 记录需要在作用域结束时关闭的实例。
// 如果作用域已经结束，实例会被立即关闭。
func (s *scope) track(instance any) error {
	closer, ok := instance.(io.Closer)
	if !ok {
		return nil
	}

	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return errors.Join(ErrScopeDisposed, closer.Close())
	}
	s.closers = append(s.closers, closer)
	s.mu.Unlock()
	return nil
}

func (s *scope) Dispose() error {
	s.disposeOnce.Do(func() {
		s.mu.Lock()
		s.disposed.Store(true)
		closers := s.closers
		s.closers = nil
		s.mu.Unlock()

		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.disposeErr = errors.Join(errs...)
	})
	return s.disposeErr
}
