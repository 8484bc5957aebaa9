package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Resolver 可以按类型解析实例，Container 和 Scope 都实现了它。
type Resolver interface {
	Get(typ reflect.Type) (any, error)
}

// ScopeFactory 是作用域策略：每次调用创建一个新的、互相隔离的作用域。
type ScopeFactory interface {
	CreateScope() (Scope, error)
}

// Container 是依赖注入容器的接口。
type Container interface {
	Resolver
	ScopeFactory

	// Add 注册服务定义。
	Add(def *ServiceDefinition) error

	// Decorate 为已注册（或稍后注册）的类型设置单例装饰器。
	Decorate(typ reflect.Type, constructor any) error

	// Build 构建依赖图并进行验证。
	Build() error

	// serviceCount 返回注册服务的总数（用于数组大小调整）。
	serviceCount() int
}

// container 是具体的实现。
type container struct {
	mu              sync.RWMutex
	definitions     map[reflect.Type]*ServiceDefinition
	decorators      map[reflect.Type]any
	built           atomic.Bool
	serviceCountVal int

	// resolver 处理实例的创建
	resolver *resolver
}

// NewContainer 创建一个新的空容器。
func NewContainer() Container {
	return &container{
		definitions: make(map[reflect.Type]*ServiceDefinition),
		decorators:  make(map[reflect.Type]any),
		resolver:    newResolver(),
	}
}

// Add 向容器添加服务定义。
func (c *container) Add(def *ServiceDefinition) error {
	if c.built.Load() {
		return ErrAlreadyBuilt
	}
	if def.Type == nil {
		return fmt.Errorf("di: 服务类型不能为空")
	}
	if def.Impl == nil {
		return fmt.Errorf("di: 服务 %v 未指定工厂或值", def.Type)
	}
	if !def.IsValue && reflect.TypeOf(def.Impl).Kind() != reflect.Func {
		return fmt.Errorf("di: 服务 %v 的工厂必须是函数，得到 %T", def.Type, def.Impl)
	}
	if def.IsValue && def.Scope != ScopeSingleton {
		return fmt.Errorf("di: 服务 %v 以值注册，只能是单例，得到 %v", def.Type, def.Scope)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.definitions[def.Type]; exists {
		return fmt.Errorf("%w: %v", ErrDuplicateService, def.Type)
	}

	c.definitions[def.Type] = def
	return nil
}

// Decorate 注册装饰器构造函数。构造函数的第一个返回值必须可以赋值给 typ。
func (c *container) Decorate(typ reflect.Type, constructor any) error {
	if c.built.Load() {
		return ErrAlreadyBuilt
	}

	fnType := reflect.TypeOf(constructor)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("di: %v 的装饰器必须是函数，得到 %T", typ, constructor)
	}
	if fnType.NumOut() == 0 || !fnType.Out(0).AssignableTo(typ) {
		return fmt.Errorf("di: %v 的装饰器返回值类型不匹配", typ)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.decorators[typ]; exists {
		return fmt.Errorf("%w: %v 的装饰器", ErrDuplicateService, typ)
	}
	c.decorators[typ] = constructor
	return nil
}

// Build 构建依赖图并进行验证。
func (c *container) Build() error {
	if c.built.Load() {
		return nil // 已构建
	}

	c.mu.Lock()
	// 双重检查
	if c.built.Load() {
		c.mu.Unlock()
		return nil
	}

	// 0. 挂载装饰器
	for typ, decorator := range c.decorators {
		def, ok := c.definitions[typ]
		if !ok {
			c.mu.Unlock()
			return &CompositionError{Service: typ, Err: fmt.Errorf("装饰器没有可装饰的服务: %w", ErrServiceNotFound)}
		}
		def.Decorator = decorator
	}

	// 1. 为定义分配 ID，只要唯一且构建后不变即可
	c.serviceCountVal = 0
	for _, def := range c.definitions {
		def.ID = c.serviceCountVal
		c.serviceCountVal++
	}

	// 2. 依赖图验证：缺失依赖、循环依赖、生命周期不匹配
	graph := newGraphBuilder(c.definitions)
	order, err := graph.buildOrder()
	if err != nil {
		c.mu.Unlock()
		return err
	}

	// 标记为已构建。此后 Add() 将失败，定义不再变化。
	c.built.Store(true)
	c.mu.Unlock()

	// 3. 按拓扑顺序急切初始化单例和装饰器
	// 在锁外执行，避免 Get() 时死锁。
	for _, n := range order {
		def := c.definitions[n.typ]
		switch {
		case n.decorator:
			if _, err := c.decorated(def); err != nil {
				return &CompositionError{Service: n.typ, Err: fmt.Errorf("构建装饰器失败: %w", err)}
			}
		case def.Scope == ScopeSingleton:
			if _, err := c.singleton(def); err != nil {
				return &CompositionError{Service: n.typ, Err: fmt.Errorf("构建单例失败: %w", err)}
			}
		}
	}

	return nil
}

// Get 检索请求类型的实例。
func (c *container) Get(typ reflect.Type) (any, error) {
	if !c.built.Load() {
		return nil, ErrNotBuilt
	}

	if inst, ok, err := c.builtin(typ); ok {
		return inst, err
	}

	// 构建后定义是不可变的，因此可以无锁读取。
	def, ok := c.definitions[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, typ)
	}

	if def.Decorator != nil {
		return c.decorated(def)
	}

	switch def.Scope {
	case ScopeSingleton:
		return c.singleton(def)
	case ScopeTransient:
		return c.resolver.createInstance(c, def.Impl, def.IsValue, def.Schema)
	case ScopeScoped:
		return nil, fmt.Errorf("%w: %v，请使用 CreateScope()", ErrScopedFromRoot, typ)
	}

	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

// CreateScope 为作用域实例创建一个新作用域。
func (c *container) CreateScope() (Scope, error) {
	if !c.built.Load() {
		return nil, ErrNotBuilt
	}
	return newScope(c), nil
}

// singleton 在定义本身上使用 sync.Once 创建单例。
func (c *container) singleton(def *ServiceDefinition) (any, error) {
	def.singletonOnce.Do(func() {
		def.singletonInst, def.singletonErr = c.resolver.createInstance(c, def.Impl, def.IsValue, def.Schema)
	})
	return def.singletonInst, def.singletonErr
}

// decorated 返回装饰器单例，其依赖总是从根容器解析。
func (c *container) decorated(def *ServiceDefinition) (any, error) {
	def.decoratorOnce.Do(func() {
		def.decoratorInst, def.decoratorErr = c.resolver.createInstance(c, def.Decorator, false, def.DecoratorSchema)
	})
	return def.decoratorInst, def.decoratorErr
}

func (c *container) serviceCount() int {
	return c.serviceCountVal
}
