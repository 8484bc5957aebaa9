package proxy_test

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Counter interface {
	Next(n int) (int, error)
}

// recorder 记录实例的创建和释放顺序
type recorder struct {
	mu     sync.Mutex
	events []string
	nextID atomic.Int64
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type counter struct {
	id       int64
	rec      *recorder
	closeErr error
	closed   atomic.Int32
}

func (c *counter) Next(n int) (int, error) {
	if n < 0 {
		return 0, errNegative
	}
	if n == 0 {
		panic("zero")
	}
	c.rec.add("call")
	return n + 1, nil
}

func (c *counter) Close() error {
	c.closed.Add(1)
	c.rec.add("close")
	return c.closeErr
}

var errNegative = errors.New("negative")

func newContainer(t *testing.T, rec *recorder, closeErr error) (di.Container, *[]*counter) {
	t.Helper()
	var mu sync.Mutex
	created := &[]*counter{}

	c := di.NewContainer()
	require.NoError(t, di.Register[Counter](c, di.WithScoped(), di.WithFactory(func() Counter {
		inst := &counter{id: rec.nextID.Add(1), rec: rec, closeErr: closeErr}
		rec.add("construct")
		mu.Lock()
		*created = append(*created, inst)
		mu.Unlock()
		return inst
	})))
	require.NoError(t, c.Build())
	return c, created
}

func newProxy(t *testing.T, c di.Container, opts ...proxy.Option) *proxy.Proxy[Counter] {
	t.Helper()
	factory, err := di.ResolveFactory[Counter](c)
	require.NoError(t, err)
	p, err := proxy.New[Counter](c, factory, opts...)
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	c := di.NewContainer()
	require.NoError(t, c.Build())

	_, err := proxy.New[Counter](nil, func(di.Scope) (Counter, error) { return nil, nil })
	assert.ErrorIs(t, err, di.ErrNoScopeStrategy)

	_, err = proxy.New[Counter](c, nil)
	assert.ErrorIs(t, err, proxy.ErrNoFactory)
}

func TestEachCallGetsFreshInstance(t *testing.T) {
	rec := &recorder{}
	c, created := newContainer(t, rec, nil)
	p := newProxy(t, c)

	const calls = 5
	for i := 1; i <= calls; i++ {
		got, err := proxy.Call(p, func(inst Counter) (int, error) { return inst.Next(i) })
		require.NoError(t, err)
		assert.Equal(t, i+1, got)

		// 返回前本次调用的实例已经释放
		require.Len(t, *created, i)
		assert.EqualValues(t, 1, (*created)[i-1].closed.Load())
	}

	for i := 1; i < calls; i++ {
		assert.Greater(t, (*created)[i].id, (*created)[i-1].id)
	}

	events := rec.list()
	require.Len(t, events, calls*3)
	for i := 0; i < calls; i++ {
		assert.Equal(t, []string{"construct", "call", "close"}, events[i*3:i*3+3])
	}
}

func TestInvokeReturnsOperationErrorUnchanged(t *testing.T) {
	rec := &recorder{}
	c, created := newContainer(t, rec, nil)
	p := newProxy(t, c)

	err := p.Invoke(func(inst Counter) error {
		_, err := inst.Next(-1)
		return err
	})
	assert.Same(t, errNegative, err)

	require.Len(t, *created, 1)
	assert.EqualValues(t, 1, (*created)[0].closed.Load())
}

func TestPanicStillDisposes(t *testing.T) {
	rec := &recorder{}
	c, created := newContainer(t, rec, nil)
	p := newProxy(t, c)

	assert.PanicsWithValue(t, "zero", func() {
		_ = p.Invoke(func(inst Counter) error {
			_, err := inst.Next(0)
			return err
		})
	})

	require.Len(t, *created, 1)
	assert.EqualValues(t, 1, (*created)[0].closed.Load())
}

func TestDisposeErrorReturnedOnlyOnSuccess(t *testing.T) {
	errClose := errors.New("close failed")
	rec := &recorder{}
	c, _ := newContainer(t, rec, errClose)

	var buf bytes.Buffer
	p := newProxy(t, c, proxy.WithLogger(logging.NewWriterLogger(&buf, "proxy")))

	_, err := proxy.Call(p, func(inst Counter) (int, error) { return inst.Next(1) })
	assert.ErrorIs(t, err, errClose)

	err = p.Invoke(func(inst Counter) error {
		_, err := inst.Next(-1)
		return err
	})
	assert.Same(t, errNegative, err)
	assert.Contains(t, buf.String(), "close failed")
}

func TestResolveErrorIsWrapped(t *testing.T) {
	errBoom := errors.New("boom")
	c := di.NewContainer()
	require.NoError(t, di.Register[Counter](c, di.WithScoped(), di.WithFactory(func() (Counter, error) {
		return nil, errBoom
	})))
	require.NoError(t, c.Build())
	p := newProxy(t, c)

	called := false
	err := p.Invoke(func(Counter) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, called)
}

type countingObserver struct {
	opened, closed, ok, failed atomic.Int64
}

func (o *countingObserver) ScopeOpened(string) { o.opened.Add(1) }
func (o *countingObserver) ScopeClosed(string) { o.closed.Add(1) }
func (o *countingObserver) CallCompleted(_ string, err error) {
	if err != nil {
		o.failed.Add(1)
		return
	}
	o.ok.Add(1)
}

func TestObserver(t *testing.T) {
	rec := &recorder{}
	c, _ := newContainer(t, rec, nil)
	obs := &countingObserver{}
	p := newProxy(t, c, proxy.WithObserver(obs), proxy.WithName("counter"))
	assert.Equal(t, "counter", p.Name())

	_, _ = proxy.Call(p, func(inst Counter) (int, error) { return inst.Next(1) })
	_, _ = proxy.Call(p, func(inst Counter) (int, error) { return inst.Next(-1) })

	assert.EqualValues(t, 2, obs.opened.Load())
	assert.EqualValues(t, 2, obs.closed.Load())
	assert.EqualValues(t, 1, obs.ok.Load())
	assert.EqualValues(t, 1, obs.failed.Load())
}

func TestDefaultName(t *testing.T) {
	rec := &recorder{}
	c, _ := newContainer(t, rec, nil)
	assert.Equal(t, "proxy_test.Counter", newProxy(t, c).Name())
}

// 并发调用各自拥有独立的作用域和实例
func TestConcurrentCallsDoNotShareInstances(t *testing.T) {
	rec := &recorder{}
	c, created := newContainer(t, rec, nil)
	p := newProxy(t, c)

	const goroutines = 32
	var wg sync.WaitGroup
	seen := sync.Map{}
	var shared atomic.Bool

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Invoke(func(inst Counter) error {
				if _, loaded := seen.LoadOrStore(inst.(*counter).id, true); loaded {
					shared.Store(true)
				}
				_, err := inst.Next(1)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.False(t, shared.Load())
	assert.Len(t, *created, goroutines)
	for _, inst := range *created {
		assert.EqualValues(t, 1, inst.closed.Load())
	}
}
