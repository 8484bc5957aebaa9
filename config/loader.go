package config

import (
	"fmt"

	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
)

// LoadOptions 配置加载选项
type LoadOptions struct {
	Paths    []string
	Optional bool
	Defaults map[string]any
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// Optional 配置文件不存在时不报错
func Optional() LoadOption {
	return func(o *LoadOptions) {
		o.Optional = true
	}
}

// WithDefaults 设置最低优先级的内存配置
func WithDefaults(data map[string]any) LoadOption {
	return func(o *LoadOptions) {
		o.Defaults = data
	}
}

// WithPaths 追加配置文件，后加载的覆盖先加载的
func WithPaths(paths ...string) LoadOption {
	return func(o *LoadOptions) {
		o.Paths = append(o.Paths, paths...)
	}
}

// Load 加载配置文件
// 按扩展名选择 YAML 或 JSON 解析，构建结果同时注册到 DI 容器和 Runtime Feature
func Load(path string, opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &LoadOptions{}
		if path != "" {
			options.Paths = []string{path}
		}
		for _, opt := range opts {
			opt(options)
		}

		builder := NewConfigurationBuilder()
		if options.Defaults != nil {
			builder.AddInMemory(options.Defaults)
		}
		for _, p := range options.Paths {
			if isJSON(p) {
				builder.AddJsonFile(p, options.Optional)
			} else {
				builder.AddYamlFile(p, options.Optional)
			}
		}

		cfg, err := builder.Build()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}

		if err := di.Register[Configuration](rt.Container, di.WithValue(cfg)); err != nil {
			return err
		}
		core.SetFeature[Configuration](rt, cfg)
		return nil
	}
}

// FromRuntime 获取已加载的配置，未加载时返回空配置
func FromRuntime(rt *core.Runtime) Configuration {
	if cfg, ok := core.GetFeature[Configuration](rt); ok {
		return cfg
	}
	return newConfiguration(make(map[string]any))
}

func isJSON(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".json"
}
