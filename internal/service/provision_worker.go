package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/logger"
)

// ProvisionWorker 轮询 provision_tasks，补齐注册时未完成的默认播放列表
type ProvisionWorker struct {
	tasks        repository.ProvisionTaskRepository
	provisioner  *Provisioner
	claimLimit   int
	pollInterval time.Duration
	lease        time.Duration
	workers      int
	metricsCh    chan time.Duration // task created -> done latency
	wg           sync.WaitGroup
}

func NewProvisionWorker(tasks repository.ProvisionTaskRepository, provisioner *Provisioner, workers, claimLimit int, pollInterval time.Duration) *ProvisionWorker {
	if workers <= 0 {
		workers = 2
	}
	if claimLimit <= 0 {
		claimLimit = 32
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &ProvisionWorker{
		tasks:        tasks,
		provisioner:  provisioner,
		workers:      workers,
		claimLimit:   claimLimit,
		pollInterval: pollInterval,
		lease:        defaultClaimLease,
		metricsCh:    make(chan time.Duration, 4096),
	}
}

// defaultClaimLease processing 任务多久没有结果后允许重新领取
const defaultClaimLease = 5 * time.Minute

// WithLease 设置领取租约，<= 0 时使用默认值
func (w *ProvisionWorker) WithLease(lease time.Duration) *ProvisionWorker {
	if lease <= 0 {
		lease = defaultClaimLease
	}
	w.lease = lease
	return w
}

func (w *ProvisionWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理任务；返回停止函数。
func (w *ProvisionWorker) Start() func(context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx)
	}
	return func(stopCtx context.Context) error {
		cancel()
		done := make(chan struct{})
		go func() { w.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-stopCtx.Done():
			return stopCtx.Err()
		}
	}
}

func (w *ProvisionWorker) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ProcessOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("provision poll failed", zap.Error(err))
			}
		}
	}
}

// ProcessOnce claims a batch of pending tasks and provisions each one.
// It returns how many tasks reached done.
func (w *ProvisionWorker) ProcessOnce(ctx context.Context) (int, error) {
	batch, err := w.tasks.Claim(ctx, w.claimLimit, w.lease)
	if err != nil {
		return 0, err
	}
	// 状态回写不随 ctx 取消，否则被打断的任务会一直停在 processing
	markCtx := context.WithoutCancel(ctx)

	done := 0
	for _, t := range batch {
		_, err := w.provisioner.EnsureDefaultPlaylists(ctx, t.UserID)
		if apperror.Is(err, apperror.KindNotFound) {
			// 用户已不存在，任务没有继续的意义
			logger.Info("provision task for missing user closed", zap.String("user", t.UserID))
			err = nil
		}
		if err != nil {
			logger.Warn("provision default playlists failed",
				zap.String("user", t.UserID), zap.Int("attempts", t.Attempts), zap.Error(err))
			if mErr := w.tasks.MarkFailed(markCtx, t.UserID, err); mErr != nil {
				logger.Error("mark provision task failed", zap.String("user", t.UserID), zap.Error(mErr))
			}
			continue
		}
		if err := w.tasks.MarkDone(markCtx, t.UserID); err != nil {
			logger.Error("mark provision task done", zap.String("user", t.UserID), zap.Error(err))
			continue
		}
		done++
		if !t.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- time.Since(t.CreatedAt):
			default:
			}
		}
	}
	return done, nil
}
