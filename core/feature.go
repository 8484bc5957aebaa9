package core

import (
	"reflect"
	"sync"
)

// FeatureCollection 是一个类型安全的特性集合
// 用于在容器构建之前共享构建时对象（例如配置），此时还无法从容器解析
type FeatureCollection struct {
	features sync.Map
}

// Set 以 feature 的动态类型注册一个特性
func (fc *FeatureCollection) Set(feature any) {
	fc.features.Store(reflect.TypeOf(feature), feature)
}

// SetAs 以指定类型注册特性，接口类型需要使用这种方式
func (fc *FeatureCollection) SetAs(typ reflect.Type, feature any) {
	fc.features.Store(typ, feature)
}

// Get 获取一个特性
func (fc *FeatureCollection) Get(typ reflect.Type) (any, bool) {
	return fc.features.Load(typ)
}

// SetFeature 泛型辅助函数，以 T 作为键注册特性
func SetFeature[T any](rt *Runtime, feature T) {
	rt.Features.SetAs(reflect.TypeOf((*T)(nil)).Elem(), feature)
}

// GetFeature 泛型辅助函数，从 Runtime 获取特性
func GetFeature[T any](rt *Runtime) (T, bool) {
	var zero T
	// T 为接口时 reflect.TypeOf(zero) 为 nil，必须从指针取 Elem
	targetType := reflect.TypeOf((*T)(nil)).Elem()

	if val, ok := rt.Features.Get(targetType); ok {
		if v, ok := val.(T); ok {
			return v, true
		}
	}
	return zero, false
}
