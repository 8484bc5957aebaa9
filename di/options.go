package di

// Option 调整一条服务注册，按传入顺序应用，后面的覆盖前面的。
type Option func(*ServiceDefinition)

// WithScope 指定生命周期。
func WithScope(scope ScopeType) Option {
	return func(s *ServiceDefinition) {
		s.Scope = scope
	}
}

// WithSingleton 整个容器共享一个实例（默认）。
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 每次解析都创建新实例，在作用域内创建的实例随作用域释放。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// WithScoped 每个作用域一个实例，根容器不能解析。
func WithScoped() Option {
	return WithScope(ScopeScoped)
}

// WithValue 注册现成的实例。
// 值只能是单例，由调用方负责关闭，作用域不会释放它。
func WithValue(v any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = v
		s.IsValue = true
		s.Scope = ScopeSingleton
	}
}

// WithFactory 注册构造函数，参数由容器注入，返回 T 或 (T, error)。
func WithFactory(fn any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = fn
		s.IsValue = false
	}
}
