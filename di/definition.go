package di

import (
	"reflect"
	"sync"
)

// ScopeType 定义了服务的生命周期。
type ScopeType int

const (
	// ScopeSingleton 每个容器创建一个实例。
	ScopeSingleton ScopeType = iota
	// ScopeTransient 每次请求创建一个新实例。
	ScopeTransient
	// ScopeScoped 每个作用域创建一个实例，作用域结束时释放。
	ScopeScoped
)

// String 返回生命周期的字符串表示
func (s ScopeType) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	case ScopeScoped:
		return "scoped"
	default:
		return "unknown"
	}
}

// InjectionSchema 包含预计算的注入元数据。
type InjectionSchema struct {
	Args []reflect.Type // 工厂函数的参数类型
}

// ServiceDefinition 包含注册服务的元数据。
type ServiceDefinition struct {
	ID      int
	Type    reflect.Type
	Scope   ScopeType
	Impl    any // 工厂函数或预先创建的值
	IsValue bool

	Schema *InjectionSchema // Build 时填充

	// Decorator 可选的装饰器构造函数。
	// 装饰器的生命周期总是单例：解析 Type 时返回装饰器，
	// 只有通过 Factory[T] 才能拿到被装饰的内部实例。
	Decorator       any
	DecoratorSchema *InjectionSchema

	// 用于单例作用域
	singletonInst any
	singletonErr  error
	singletonOnce sync.Once

	decoratorInst any
	decoratorErr  error
	decoratorOnce sync.Once
}

// effectiveScope 返回其他服务依赖 Type 时实际拿到的生命周期。
func (d *ServiceDefinition) effectiveScope() ScopeType {
	if d.Decorator != nil {
		return ScopeSingleton
	}
	return d.Scope
}
