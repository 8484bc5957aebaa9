package di

import (
	"fmt"
	"reflect"
)

// Provide 智能注册服务。
// 它可以接受构造函数或预先创建的指针，并自动推断服务类型。
//
// 支持的输入 target 类型:
// 1. func(...) (Service, error?) -> 注册为 Factory，ServiceType 为第一个返回值。
// 2. *Struct                      -> 注册为 Value (Singleton)，ServiceType 为 *Struct。
func Provide(c Container, target any, opts ...Option) (reflect.Type, error) {
	targetVal := reflect.ValueOf(target)
	var def *ServiceDefinition

	switch targetVal.Kind() {
	case reflect.Func:
		fnType := targetVal.Type()
		if fnType.NumOut() == 0 {
			return nil, fmt.Errorf("di: constructor function must return at least one value")
		}
		def = &ServiceDefinition{
			Type:  fnType.Out(0),
			Scope: ScopeSingleton,
			Impl:  target,
		}
	case reflect.Ptr:
		def = &ServiceDefinition{
			Type:    targetVal.Type(),
			Scope:   ScopeSingleton,
			Impl:    target,
			IsValue: true,
		}
	default:
		return nil, fmt.Errorf("di: unsupported registration target type: %T", target)
	}

	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		return nil, err
	}
	return def.Type, nil
}

// Register registers a service of type T with the container.
// Use WithFactory or WithValue to say how T is produced.
func Register[T any](c Container, opts ...Option) error {
	def := &ServiceDefinition{
		Type:  TypeOf[T](),
		Scope: ScopeSingleton,
	}

	for _, opt := range opts {
		opt(def)
	}

	if err := c.Add(def); err != nil {
		return fmt.Errorf("di: failed to register %v: %w", def.Type, err)
	}
	return nil
}

// Decorate registers a singleton decorator for T.
//
// The constructor's dependencies are injected from the root container. To get
// fresh instances of the decorated service it should take a Factory[T].
func Decorate[T any](c Container, constructor any) error {
	return c.Decorate(TypeOf[T](), constructor)
}

// Resolve resolves an instance of type T from the container or scope.
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	typ := TypeOf[T]()

	val, err := r.Get(typ)
	if err != nil {
		return zero, err
	}

	if v, ok := val.(T); ok {
		return v, nil
	}

	return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, typ)
}

// ResolveFactory resolves the Factory for T, bypassing any decorator of T.
func ResolveFactory[T any](r Resolver) (Factory[T], error) {
	return Resolve[Factory[T]](r)
}

// TypeOf 获取类型 T 的 reflect.Type，接口类型也可用。
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
