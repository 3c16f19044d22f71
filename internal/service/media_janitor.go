package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/pkg/logger"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

type janitorJob struct {
	url   string
	enqAt time.Time
}

// MediaJanitor 异步删除不再被引用的媒体文件（尽力而为，每个文件只尝试一次）
type MediaJanitor struct {
	store     objectstore.Store
	ch        chan janitorJob
	metricsCh chan time.Duration
	wg        sync.WaitGroup
}

func NewMediaJanitor(store objectstore.Store, queueSize int) *MediaJanitor {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &MediaJanitor{store: store, ch: make(chan janitorJob, queueSize), metricsCh: make(chan time.Duration, 4096)}
}

// Start 启动若干 worker；返回的停止函数会在超时前尽量排空队列
func (j *MediaJanitor) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		j.wg.Add(1)
		go func() {
			defer j.wg.Done()
			for {
				select {
				case job := <-j.ch:
					j.handle(job)
				case <-stopCh:
					// 退出前处理已入队的任务
					for {
						select {
						case job := <-j.ch:
							j.handle(job)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		done := make(chan struct{})
		go func() { j.wg.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *MediaJanitor) handle(job janitorJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := j.store.Delete(ctx, job.url); err != nil {
		logger.Warn("media delete failed", zap.String("url", job.url), zap.Error(err))
	}
	select {
	case j.metricsCh <- time.Since(job.enqAt):
	default:
	}
}

// Enqueue 空 URL 被忽略；队列满时丢弃并告警
func (j *MediaJanitor) Enqueue(urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		select {
		case j.ch <- janitorJob{url: u, enqAt: time.Now()}:
		default:
			logger.Warn("janitor queue full, drop delete", zap.String("url", u))
		}
	}
}

// Metrics 返回删除落地耗时的只读通道（每处理一条发送一次 duration）。
func (j *MediaJanitor) Metrics() <-chan time.Duration { return j.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (j *MediaJanitor) QueueLen() int { return len(j.ch) }
