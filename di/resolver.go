package di

import (
	"fmt"
	"reflect"
)

type resolver struct{}

func newResolver() *resolver {
	return &resolver{}
}

// createInstance 创建新实例。
// 它使用提供的 Resolver 递归解析依赖项，作用域内创建时传入的是作用域本身。
func (r *resolver) createInstance(c Resolver, impl any, isValue bool, schema *InjectionSchema) (any, error) {
	if isValue {
		return impl, nil
	}
	return r.invokeFunction(c, impl, schema)
}

// invokeFunction 调用工厂或构造函数。
// 它使用预计算的 schema 将依赖项注入函数参数。
func (r *resolver) invokeFunction(c Resolver, fn any, schema *InjectionSchema) (any, error) {
	fnVal := reflect.ValueOf(fn)

	args := make([]reflect.Value, len(schema.Args))
	for i, argType := range schema.Args {
		argVal, err := c.Get(argType)
		if err != nil {
			return nil, fmt.Errorf("参数 %d (%v): %w", i, argType, err)
		}
		args[i] = reflect.ValueOf(argVal)
	}

	results := fnVal.Call(args)

	if len(results) == 0 {
		return nil, fmt.Errorf("工厂/构造函数没有返回值")
	}

	// 检查最后一个返回值是否为错误
	if len(results) > 1 {
		last := results[len(results)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	first := results[0]
	switch first.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan:
		if first.IsNil() {
			return nil, fmt.Errorf("工厂/构造函数返回了 nil 实例")
		}
	}

	return first.Interface(), nil
}
