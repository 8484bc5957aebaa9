package proxy

// Observer 接收代理调用的生命周期事件，实现必须是并发安全的
type Observer interface {
	// ScopeOpened 每次调用开启作用域后触发
	ScopeOpened(proxy string)
	// ScopeClosed 作用域释放后触发，无论调用是否成功
	ScopeClosed(proxy string)
	// CallCompleted 操作返回后触发，err 为操作本身的错误
	CallCompleted(proxy string, err error)
}

type nopObserver struct{}

func (nopObserver) ScopeOpened(string)          {}
func (nopObserver) ScopeClosed(string)          {}
func (nopObserver) CallCompleted(string, error) {}

// NopObserver 返回忽略所有事件的 Observer
func NopObserver() Observer {
	return nopObserver{}
}
