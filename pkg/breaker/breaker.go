// Package breaker wraps sony/gobreaker with the settings shared by the
// outbound dependencies (object store, mail).
package breaker

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/pkg/logger"
)

// Breaker 熔断器，结果类型固定为 struct{}（调用方只关心 error）
type Breaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// New 连续失败 threshold 次后打开，openTimeout 后进入半开。
// ignored 中的错误（按 errors.Is 匹配）属于调用方问题，不计入失败
func New(name string, threshold uint32, openTimeout time.Duration, ignored ...error) *Breaker {
	if threshold == 0 {
		threshold = 5
	}
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			for _, target := range ignored {
				if errors.Is(err, target) {
					return true
				}
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return &Breaker{cb: cb}
}

// Do 在熔断器保护下执行 fn
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// State 当前状态
func (b *Breaker) State() gobreaker.State { return b.cb.State() }

// Rejected reports whether err came from the breaker itself rather than fn.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
