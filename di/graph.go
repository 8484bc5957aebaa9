package di

import (
	"fmt"
	"reflect"
)

// node 是依赖图中的节点。被装饰的类型有两个节点：内部实现和装饰器。
type node struct {
	typ       reflect.Type
	decorator bool
}

// graphBuilder 处理依赖图的构建和验证。
type graphBuilder struct {
	definitions map[reflect.Type]*ServiceDefinition
}

func newGraphBuilder(defs map[reflect.Type]*ServiceDefinition) *graphBuilder {
	return &graphBuilder{
		definitions: defs,
	}
}

// buildOrder 验证依赖图并返回急切初始化的拓扑顺序。
func (g *graphBuilder) buildOrder() ([]node, error) {
	dependencies := make(map[node][]node)

	// 1. 提取所有服务的依赖关系
	for typ, def := range g.definitions {
		def.Schema = &InjectionSchema{}
		deps, err := g.inspect(typ, def.Impl, def.IsValue, def.Scope, def.Schema)
		if err != nil {
			return nil, err
		}
		dependencies[node{typ: typ}] = deps

		if def.Decorator != nil {
			def.DecoratorSchema = &InjectionSchema{}
			deps, err := g.inspect(typ, def.Decorator, false, ScopeSingleton, def.DecoratorSchema)
			if err != nil {
				return nil, err
			}
			dependencies[node{typ: typ, decorator: true}] = deps
		}
	}

	// 2. 拓扑排序 (基于 DFS)
	visited := make(map[node]bool)
	recursionStack := make(map[node]bool)
	var order []node

	var visit func(node) error
	visit = func(u node) error {
		visited[u] = true
		recursionStack[u] = true

		for _, v := range dependencies[u] {
			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			} else if recursionStack[v] {
				return &CompositionError{
					Service:    u.typ,
					Dependency: v.typ,
					Err:        ErrCircularDependency,
				}
			}
		}

		recursionStack[u] = false
		order = append(order, u)
		return nil
	}

	for n := range dependencies {
		if !visited[n] {
			if err := visit(n); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// inspect 分析构造函数参数，填充 schema 并返回图中的依赖节点。
// Factory[T] 和 ScopeFactory 是延迟解析的，不产生图的边，但 T 必须已注册。
func (g *graphBuilder) inspect(owner reflect.Type, impl any, isValue bool, lifetime ScopeType, schema *InjectionSchema) ([]node, error) {
	if isValue {
		return nil, nil
	}

	fnType := reflect.TypeOf(impl)
	if fnType.Kind() != reflect.Func {
		return nil, &CompositionError{Service: owner, Err: fmt.Errorf("期望函数，得到 %v", fnType)}
	}

	var deps []node
	for i := 0; i < fnType.NumIn(); i++ {
		argType := fnType.In(i)
		schema.Args = append(schema.Args, argType)

		if argType == scopeFactoryType {
			continue
		}

		if target, ok := factoryTarget(argType); ok {
			if _, exists := g.definitions[target]; !exists {
				return nil, &CompositionError{Service: owner, Dependency: argType, Err: ErrServiceNotFound}
			}
			continue
		}

		dep, exists := g.definitions[argType]
		if !exists {
			return nil, &CompositionError{Service: owner, Dependency: argType, Err: ErrServiceNotFound}
		}

		// 单例会一直持有依赖，不能直接捕获作用域实例
		if lifetime == ScopeSingleton && dep.effectiveScope() == ScopeScoped {
			return nil, &CompositionError{
				Service:    owner,
				Dependency: argType,
				Err:        fmt.Errorf("%w: 单例不能依赖作用域服务，请注入 Factory", ErrLifetimeMismatch),
			}
		}

		deps = append(deps, node{typ: argType, decorator: dep.Decorator != nil})
	}
	return deps, nil
}
