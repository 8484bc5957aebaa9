package config

// Section 绑定指定节的配置到 T
// defaults 提供缺省值：节不存在时原样返回，存在时只覆盖配置中出现的字段
func Section[T any](cfg Configuration, section string, defaults T) (T, error) {
	if cfg == nil || !cfg.Exists(section) {
		return defaults, nil
	}

	t := defaults
	if err := cfg.Bind(section, &t); err != nil {
		return defaults, err
	}
	return t, nil
}
