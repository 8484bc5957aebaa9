package logging

import (
	"bytes"
	"sync"
)

// maxPooledBuffer 超过此容量的 buffer 直接丢弃，避免偶发的大日志长期占用内存
const maxPooledBuffer = 64 << 10

// BufferPool 格式化时复用的 bytes.Buffer 池
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool 创建缓冲池
func NewBufferPool() *BufferPool {
	p := &BufferPool{}
	p.pool.New = func() any { return new(bytes.Buffer) }
	return p
}

// Get 取出一个空 buffer
func (p *BufferPool) Get() *bytes.Buffer {
	return p.pool.Get().(*bytes.Buffer)
}

// Put 归还 buffer，超出容量上限的不再复用
func (p *BufferPool) Put(b *bytes.Buffer) {
	if b.Cap() > maxPooledBuffer {
		return
	}
	b.Reset()
	p.pool.Put(b)
}

// GlobalBufferPool 格式化器共用的缓冲池
var GlobalBufferPool = NewBufferPool()
