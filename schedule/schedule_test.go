package schedule

import (
	"bytes"
	"context"
	"errors"
	"sync"
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
	mu       sync.Mutex
	messages []string
	err      error
	panicMsg string
}

func (m *fakeMessenger) Handle(msg string) error {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return m.err
}

func (m *fakeMessenger) Mangle(msg string) (int, error) {
	return messaging.Mangle(msg), nil
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		wantErr  bool
	}{
		{"descriptor", Settings{Spec: "@every 10s"}, false},
		{"five fields", Settings{Spec: "*/5 * * * *"}, false},
		{"six fields without seconds", Settings{Spec: "* * * * * *"}, true},
		{"six fields with seconds", Settings{Spec: "* * * * * *", Seconds: true}, false},
		{"garbage", Settings{Spec: "whenever"}, true},
		{"empty", Settings{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTick(t *testing.T) {
	m := &fakeMessenger{}
	var buf bytes.Buffer
	svc := NewService(m, logging.NewWriterLogger(&buf, "schedule"), Settings{Spec: "@every 1h", Message: "ping"})

	require.NoError(t, svc.Tick())
	assert.Equal(t, []string{"ping"}, m.messages)

	errBoom := errors.New("boom")
	m.err = errBoom
	assert.ErrorIs(t, svc.Tick(), errBoom)

	assert.EqualValues(t, 2, svc.Ticks())
	assert.EqualValues(t, 1, svc.Failed())
	assert.Contains(t, buf.String(), "scheduled handle failed {error=boom}")
}

func TestServiceRunsOnSchedule(t *testing.T) {
	m := &fakeMessenger{}
	svc := NewService(m, nil, Settings{Spec: "* * * * * *", Seconds: true, Message: "tick"})

	require.NoError(t, svc.Start(context.Background()))
	assert.Eventually(t, func() bool { return m.count() >= 1 }, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(ctx))

	// 停止后不再触发
	stoppedAt := m.count()
	time.Sleep(1100 * time.Millisecond)
	assert.Equal(t, stoppedAt, m.count())
}

// 任务 panic 被 cron.Recover 捕获，并记录日志
func TestServiceRecoversPanics(t *testing.T) {
	m := &fakeMessenger{panicMsg: "kaboom"}
	buf := &syncBuffer{}
	svc := NewService(m, logging.NewWriterLogger(buf, "schedule"), Settings{Spec: "* * * * * *", Seconds: true})

	require.NoError(t, svc.Start(context.Background()))
	assert.Eventually(t, func() bool { return bytes.Contains(buf.Bytes(), []byte("kaboom")) }, 3*time.Second, 20*time.Millisecond)
	require.NoError(t, svc.Stop(context.Background()))
}

func TestStopBeforeStart(t *testing.T) {
	svc := NewService(&fakeMessenger{}, nil, Settings{Spec: "@every 1s"})

	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Start(context.Background()))
	assert.False(t, svc.started)
}

func TestStartInvalidSpec(t *testing.T) {
	svc := NewService(&fakeMessenger{}, nil, Settings{Spec: "nope"})
	assert.Error(t, svc.Start(context.Background()))
}

func newRuntime(t *testing.T, scheduler map[string]any) *core.Runtime {
	t.Helper()
	rt := core.NewRuntime()
	require.NoError(t, rt.Apply(
		config.Load("", config.WithDefaults(map[string]any{"scheduler": scheduler})),
		logging.Configure(logging.WithOutput(&bytes.Buffer{})),
	))
	require.NoError(t, di.Register[messaging.Messenger](rt.Container, di.WithValue(&fakeMessenger{})))
	return rt
}

func TestNewDisabledRegistersNothing(t *testing.T) {
	rt := newRuntime(t, map[string]any{"enabled": false})
	require.NoError(t, rt.Apply(New()))
	require.NoError(t, rt.Container.Build())

	_, err := di.Resolve[*Service](rt.Container)
	assert.ErrorIs(t, err, di.ErrServiceNotFound)
}

func TestNewEnabledRegistersHostedService(t *testing.T) {
	rt := newRuntime(t, map[string]any{"enabled": true, "spec": "@every 1h", "message": "hello"})
	require.NoError(t, rt.Apply(New()))
	require.NoError(t, rt.Container.Build())

	svc, err := di.Resolve[*Service](rt.Container)
	require.NoError(t, err)
	assert.Equal(t, "hello", svc.settings.Message)

	require.NoError(t, rt.Lifecycle.Start(context.Background()))
	require.NoError(t, rt.Lifecycle.Stop(context.Background()))
}

func TestNewInvalidSpecFailsComposition(t *testing.T) {
	rt := newRuntime(t, map[string]any{"enabled": true, "spec": "sometimes"})
	assert.Error(t, rt.Apply(New()))
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
