package di

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotBuilt 在 Build 之前解析服务或创建作用域时返回。
	ErrNotBuilt = errors.New("di: 容器未构建")
	// ErrAlreadyBuilt 在 Build 之后注册服务时返回。
	ErrAlreadyBuilt = errors.New("di: build 后无法注册服务")
	// ErrServiceNotFound 服务未注册。
	ErrServiceNotFound = errors.New("di: 未找到服务")
	// ErrDuplicateService 同一类型重复注册。
	ErrDuplicateService = errors.New("di: 服务已注册")
	// ErrCircularDependency 依赖图中存在环。
	ErrCircularDependency = errors.New("di: 检测到循环依赖")
	// ErrLifetimeMismatch 单例直接依赖了作用域服务。
	ErrLifetimeMismatch = errors.New("di: 生命周期不匹配")
	// ErrScopedFromRoot 从根容器解析作用域服务。
	ErrScopedFromRoot = errors.New("di: 无法从根容器解析作用域服务")
	// ErrNoScopeStrategy 未提供作用域策略（ScopeFactory）。
	ErrNoScopeStrategy = errors.New("di: 未注册作用域策略")
	// ErrScopeDisposed 作用域已释放。
	ErrScopeDisposed = errors.New("di: 作用域已释放")
	// ErrForeignScope 传入的作用域不属于当前容器。
	ErrForeignScope = errors.New("di: 作用域不属于此容器")
)

// CompositionError 描述无法满足的服务依赖。
// 它在 Build 阶段返回，应用应当据此终止启动。
type CompositionError struct {
	Service    reflect.Type
	Dependency reflect.Type
	Err        error
}

func (e *CompositionError) Error() string {
	if e.Dependency == nil {
		return fmt.Sprintf("di: 无法组装 %v: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("di: 无法组装 %v (依赖 %v): %v", e.Service, e.Dependency, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}
