package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gocrud/scopedproxy/logging"
	"github.com/gocrud/scopedproxy/messaging"
	"github.com/robfig/cron/v3"
)

// Service 定时通过代理调用 Messenger.Handle
// 每次触发都经过代理，因此各自拥有独立的作用域和实例
type Service struct {
	settings  Settings
	messenger messaging.Messenger
	logger    logging.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	stopped bool

	ticks  atomic.Int64
	failed atomic.Int64
}

// NewService 创建定时服务，spec 在 Start 时注册
func NewService(messenger messaging.Messenger, logger logging.Logger, settings Settings) *Service {
	if logger == nil {
		logger = logging.Nop()
	}

	cronOpts := []cron.Option{
		cron.WithParser(parser(settings.Seconds)),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	// 只在启用时添加 cron 库的日志记录器
	if settings.Verbose {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}

	return &Service{
		settings:  settings,
		messenger: messenger,
		logger:    logger,
		cron:      cron.New(cronOpts...),
	}
}

// Tick 执行一次任务
func (s *Service) Tick() error {
	s.ticks.Add(1)
	if err := s.messenger.Handle(s.settings.Message); err != nil {
		s.failed.Add(1)
		s.logger.Error("scheduled handle failed", logging.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// Ticks 已触发次数
func (s *Service) Ticks() int64 {
	return s.ticks.Load()
}

// Failed 失败次数
func (s *Service) Failed() int64 {
	return s.failed.Load()
}

// Start 实现 core.HostedService，注册任务后立即返回
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started || s.stopped {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.settings.Spec, func() {
		_ = s.Tick()
	})
	if err != nil {
		return fmt.Errorf("schedule: failed to add job with spec '%s': %w", s.settings.Spec, err)
	}
	s.entryID = entryID
	s.started = true

	s.logger.Info(fmt.Sprintf("scheduler started with spec '%s'", s.settings.Spec))
	s.cron.Start()
	return nil
}

// Stop 实现 core.HostedService，等待正在执行的任务结束或 ctx 超时
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	s.logger.Info("scheduler stopping", logging.Field{Key: "ticks", Value: s.Ticks()})
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: fmt.Sprint(err)})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
