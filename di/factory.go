package di

import (
	"fmt"
	"reflect"
)

// Factory 在给定作用域内产生 T 的新实例。
//
// 与直接解析 T 不同，Factory 绕过 T 上注册的装饰器，返回内部实现。
// 任何已注册的类型 T 都可以以 Factory[T] 的形式被注入，
// 装饰器正是通过它在每次调用时拿到新的作用域实例。
type Factory[T any] func(s Scope) (T, error)

var (
	scopeFactoryType = reflect.TypeOf((*ScopeFactory)(nil)).Elem()
	scopeType        = reflect.TypeOf((*Scope)(nil)).Elem()
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// factoryTarget 判断 typ 是否为 func(Scope) (X, error) 形状，返回 X。
func factoryTarget(typ reflect.Type) (reflect.Type, bool) {
	if typ.Kind() != reflect.Func || typ.IsVariadic() {
		return nil, false
	}
	if typ.NumIn() != 1 || typ.NumOut() != 2 {
		return nil, false
	}
	if typ.In(0) != scopeType || typ.Out(1) != errorType {
		return nil, false
	}
	return typ.Out(0), true
}

// builtin 解析容器自带的服务：作用域策略本身和 Factory[T]。
// 第二个返回值表示 typ 是否为内置类型。
func (c *container) builtin(typ reflect.Type) (any, bool, error) {
	if typ == scopeFactoryType {
		return ScopeFactory(c), true, nil
	}

	target, ok := factoryTarget(typ)
	if !ok {
		return nil, false, nil
	}

	def, ok := c.definitions[target]
	if !ok {
		return nil, true, &CompositionError{Service: typ, Dependency: target, Err: ErrServiceNotFound}
	}

	fn := reflect.MakeFunc(typ, func(args []reflect.Value) []reflect.Value {
		inst, err := c.produce(args[0], def)
		if err != nil {
			return []reflect.Value{reflect.Zero(target), reflect.ValueOf(&err).Elem()}
		}
		return []reflect.Value{reflect.ValueOf(inst).Convert(target), reflect.Zero(errorType)}
	})
	return fn.Interface(), true, nil
}

// produce 在传入的作用域内解析 def 的内部（未装饰）实例。
func (c *container) produce(arg reflect.Value, def *ServiceDefinition) (any, error) {
	if arg.IsNil() {
		return nil, ErrNoScopeStrategy
	}

	s, ok := arg.Interface().(*scope)
	if !ok || s.parent != c {
		return nil, fmt.Errorf("%w: %v", ErrForeignScope, def.Type)
	}
	return s.inner(def)
}
