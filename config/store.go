package config

import (
	"strings"
	"sync"
	"sync/atomic"
)

// ValueStore 持有配置树的快照，读取无锁
type ValueStore struct {
	value atomic.Pointer[map[string]any]
}

// NewValueStore 创建持有空配置树的 ValueStore
func NewValueStore() *ValueStore {
	s := &ValueStore{}
	s.Store(make(map[string]any))
	return s
}

// Load 返回当前快照，调用方不得修改
func (s *ValueStore) Load() map[string]any {
	if p := s.value.Load(); p != nil {
		return *p
	}
	return nil
}

// Store 整体替换快照
func (s *ValueStore) Store(data map[string]any) {
	s.value.Store(&data)
}

// segmentCache 路径 -> 片段
var segmentCache sync.Map

// pathSegments 拆分 "a:b:c" 或 "a.b.c"，结果会被缓存，调用方不得修改
func pathSegments(path string) []string {
	if v, ok := segmentCache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	segmentCache.Store(path, parts)
	return parts
}
