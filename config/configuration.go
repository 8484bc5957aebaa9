package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Configuration 配置接口（类似于 .NET Core IConfiguration）
type Configuration interface {
	// Get 获取配置值
	Get(key string) string
	// GetWithDefault 获取配置值，如果不存在则返回默认值
	GetWithDefault(key, defaultValue string) string
	// GetInt 获取整数配置值
	GetInt(key string) (int, error)
	// GetBool 获取布尔配置值
	GetBool(key string) (bool, error)
	// GetSection 获取配置节
	GetSection(key string) Configuration
	// Bind 绑定配置到结构体
	Bind(key string, target any) error
	// Exists 判断键是否存在
	Exists(key string) bool
}

// ConfigurationSource 配置源接口
type ConfigurationSource interface {
	Load() (map[string]any, error)
	Name() string
}

// ConfigurationBuilder 配置构建器
type ConfigurationBuilder struct {
	sources []ConfigurationSource
	mu      sync.RWMutex
}

// NewConfigurationBuilder 创建配置构建器
func NewConfigurationBuilder() *ConfigurationBuilder {
	return &ConfigurationBuilder{
		sources: make([]ConfigurationSource, 0),
	}
}

// Add 添加配置源
func (b *ConfigurationBuilder) Add(source ConfigurationSource) *ConfigurationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddJsonFile 添加 JSON 文件配置源
func (b *ConfigurationBuilder) AddJsonFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&JsonFileSource{Path: path, Optional: isOptional})
}

// AddYamlFile 添加 YAML 文件配置源
func (b *ConfigurationBuilder) AddYamlFile(path string, optional ...bool) *ConfigurationBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&YamlFileSource{Path: path, Optional: isOptional})
}

// AddInMemory 添加内存配置源
func (b *ConfigurationBuilder) AddInMemory(data map[string]any) *ConfigurationBuilder {
	return b.Add(&InMemorySource{Data: data})
}

// Build 构建配置
func (b *ConfigurationBuilder) Build() (Configuration, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data := make(map[string]any)

	// 按顺序加载所有配置源（后面的会覆盖前面的）
	for _, source := range b.sources {
		loaded, err := source.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}

	return newConfiguration(data), nil
}

// configuration 配置实现，构建后只读
type configuration struct {
	store *ValueStore
}

func newConfiguration(data map[string]any) *configuration {
	store := NewValueStore()
	store.Store(data)
	return &configuration{store: store}
}

// Get 获取配置值
func (c *configuration) Get(key string) string {
	value := c.getByPath(key)
	if value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取配置值，如果不存在则返回默认值
func (c *configuration) GetWithDefault(key, defaultValue string) string {
	value := c.Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetInt 获取整数配置值
func (c *configuration) GetInt(key string) (int, error) {
	value := c.getByPath(key)
	if value == nil {
		return 0, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %v to int", value)
	}
}

// GetBool 获取布尔配置值
func (c *configuration) GetBool(key string) (bool, error) {
	value := c.getByPath(key)
	if value == nil {
		return false, fmt.Errorf("key %s not found", key)
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %v to bool", value)
	}
}

// GetSection 获取配置节，不存在时返回空配置
func (c *configuration) GetSection(key string) Configuration {
	if m, ok := c.getByPath(key).(map[string]any); ok {
		return newConfiguration(m)
	}
	return newConfiguration(make(map[string]any))
}

// Exists 判断键是否存在
func (c *configuration) Exists(key string) bool {
	return c.getByPath(key) != nil
}

// Bind 绑定配置到结构体
// target 中已有的字段值在配置缺失时保持不变，可用来承载默认值
func (c *configuration) Bind(key string, target any) error {
	data := c.getByPath(key)
	if data == nil {
		return fmt.Errorf("key %s not found", key)
	}

	// 使用 JSON 序列化/反序列化进行绑定
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}

// getByPath 通过路径获取值（支持 "a:b:c" 或 "a.b.c"）
func (c *configuration) getByPath(path string) any {
	data := c.store.Load()
	if path == "" {
		return data
	}

	current := any(data)
	for _, part := range pathSegments(path) {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}

	return current
}

// mergeMaps 合并两个 map，嵌套的 map 递归合并
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dstMap, ok := dst[k].(map[string]any); ok {
			if srcMap, ok := v.(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
		}
		if srcMap, ok := v.(map[string]any); ok {
			// 复制一份，避免后续合并修改配置源的数据
			copied := make(map[string]any, len(srcMap))
			mergeMaps(copied, srcMap)
			dst[k] = copied
			continue
		}
		dst[k] = v
	}
}
