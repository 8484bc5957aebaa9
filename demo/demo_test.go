package demo

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gocrud/scopedproxy/config"
	"github.com/gocrud/scopedproxy/core"
	"github.com/gocrud/scopedproxy/di"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessenger struct {
	handled   []string
	mangled   int
	handleErr error
	unstable  bool
}

func (m *fakeMessenger) Handle(msg string) error {
	if m.handleErr != nil {
		return m.handleErr
	}
	m.handled = append(m.handled, msg)
	return nil
}

func (m *fakeMessenger) Mangle(msg string) (int, error) {
	m.mangled++
	if m.unstable {
		return m.mangled, nil
	}
	return messaging.Mangle(msg), nil
}

func TestDrive(t *testing.T) {
	m := &fakeMessenger{}
	var buf bytes.Buffer
	d := NewDriver(m, logging.NewWriterLogger(&buf, "demo"), DefaultSettings())

	result, err := d.Drive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Hello", "World"}, m.handled)
	assert.Equal(t, 2, result.Handled)
	assert.Equal(t, 2, m.mangled)
	assert.Equal(t, messaging.Mangle("Hi!"), result.Hashes[0])
	assert.Equal(t, result.Hashes[0], result.Hashes[1])
	assert.Contains(t, buf.String(), "mangle Hi! = ")
}

func TestDriveReturnsOperationError(t *testing.T) {
	errBoom := errors.New("boom")
	m := &fakeMessenger{handleErr: errBoom}

	_, err := NewDriver(m, nil, DefaultSettings()).Drive(context.Background())
	assert.Same(t, errBoom, err)
	assert.Zero(t, m.mangled)
}

func TestDriveDetectsUnstableMangle(t *testing.T) {
	m := &fakeMessenger{unstable: true}
	_, err := NewDriver(m, nil, DefaultSettings()).Drive(context.Background())
	assert.ErrorContains(t, err, "not deterministic")
}

func TestDriveStopsWhenCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &fakeMessenger{}
	_, err := NewDriver(m, nil, DefaultSettings()).Drive(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.handled)
}

func newRuntime(t *testing.T, demo map[string]any, m messaging.Messenger) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		config.Load("", config.WithDefaults(map[string]any{"demo": demo})),
		logging.Configure(logging.WithOutput(&bytes.Buffer{})),
		New(),
	))
	require.NoError(t, di.Register[messaging.Messenger](rt.Container, di.WithValue(m)))
	require.NoError(t, rt.Container.Build())
	return rt
}

func TestWorkerRequestsShutdown(t *testing.T) {
	m := &fakeMessenger{}
	rt := newRuntime(t, map[string]any{"messages": []any{"only"}}, m)

	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("demo did not request shutdown")
	}
	require.NoError(t, rt.Lifecycle.Stop(context.Background()))

	assert.Equal(t, []string{"only"}, m.handled)
	assert.NoError(t, rt.Err())
}

func TestWorkerFailureIsRecorded(t *testing.T) {
	errBoom := errors.New("boom")
	rt := newRuntime(t, map[string]any{}, &fakeMessenger{handleErr: errBoom})

	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	select {
	case <-rt.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("failure did not trigger shutdown")
	}
	require.NoError(t, rt.Lifecycle.Stop(context.Background()))

	assert.ErrorIs(t, rt.Err(), errBoom)
}

func TestWorkerKeepAlive(t *testing.T) {
	m := &fakeMessenger{}
	rt := newRuntime(t, map[string]any{"keepAlive": true}, m)

	require.NoError(t, rt.Lifecycle.Start(context.Background()))

	select {
	case <-rt.Done():
		t.Fatal("keepAlive should not request shutdown")
	case <-time.After(200 * time.Millisecond):
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rt.Lifecycle.Stop(ctx))
	assert.Equal(t, []string{"Hello", "World"}, m.handled)
}
