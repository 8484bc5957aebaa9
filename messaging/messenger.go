// Package messaging 定义 Messenger 能力、它的具体实现以及按调用创建实例的代理。
package messaging

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/gocrud/scopedproxy/logging"
	"github.com/google/uuid"
)

// Messenger 消息能力接口
type Messenger interface {
	// Handle 处理一条消息，只产生副作用
	Handle(msg string) error
	// Mangle 返回消息的确定性哈希，与实例无关
	Mangle(msg string) (int, error)
}

// ErrDisposed 实例已释放
var ErrDisposed = errors.New("messaging: service disposed")

// lastID 进程内实例编号，每次构造加一
var lastID atomic.Int64

// Service Messenger 的具体实现，在作用域内创建，随作用域释放
type Service struct {
	id     int64
	tag    string
	logger logging.Logger
	closed atomic.Bool
}

// NewService 创建实例，编号严格大于之前创建的所有实例
func NewService(logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		id:  lastID.Add(1),
		tag: uuid.NewString(),
	}
	s.logger = logger.WithFields(logging.Field{Key: "tag", Value: s.tag})
	s.logger.Info(fmt.Sprintf("constructed id %d", s.id))
	return s
}

// ID 实例编号
func (s *Service) ID() int64 {
	return s.id
}

// Tag 实例标签，仅用于区分日志
func (s *Service) Tag() string {
	return s.tag
}

func (s *Service) Handle(msg string) error {
	if s.closed.Load() {
		return ErrDisposed
	}
	s.logger.Info(fmt.Sprintf("handling %s id %d", msg, s.id))
	return nil
}

func (s *Service) Mangle(msg string) (int, error) {
	if s.closed.Load() {
		return 0, ErrDisposed
	}
	return Mangle(msg), nil
}

// Close 释放实例，重复调用无效果
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.logger.Info(fmt.Sprintf("disposing id %d", s.id))
	return nil
}

// Mangle 取 xxhash 的高 31 位，结果非负
func Mangle(msg string) int {
	return int(xxhash.Sum64String(msg) >> 33)
}
