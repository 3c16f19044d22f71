// Package cacheperf serves hot channel subscriber pages from Redis: a list
// index of subscriber ids per channel plus per-user profile snapshots.
package cacheperf

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/logger"
)

var errStaleIndex = errors.New("subscriber index changed during load")

// SubscriberDirectory 频道订阅者缓存：索引用 Redis List（最近订阅在前），用户信息用 MGET 批量读
type SubscriberDirectory struct {
	subs    repository.SubscriptionRepository
	users   repository.UserRepository
	cache   *redis.Client
	ttl     time.Duration
	dbDelay time.Duration

	indexLoads   atomic.Int64
	profileLoads atomic.Int64
}

// NewSubscriberDirectory ttl 同时作用于索引与用户快照
func NewSubscriberDirectory(subs repository.SubscriptionRepository, users repository.UserRepository, cache *redis.Client, ttl time.Duration) *SubscriberDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SubscriberDirectory{subs: subs, users: users, cache: cache, ttl: ttl}
}

// WithDBDelay simulates the round-trip cost of the primary store (benchmarks only).
func (d *SubscriberDirectory) WithDBDelay(delay time.Duration) *SubscriberDirectory {
	d.dbDelay = delay
	return d
}

func indexKey(channelID string) string { return fmt.Sprintf("subscribers:index:%s", channelID) }

func profileKey(userID string) string { return fmt.Sprintf("profile:%s", userID) }

// versionKey 每次失效自增；回填索引前比对，防止旧数据覆盖失效
func versionKey(channelID string) string { return fmt.Sprintf("subscribers:ver:%s", channelID) }

// Page 返回频道订阅者的一页
func (d *SubscriberDirectory) Page(ctx context.Context, channelID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error) {
	req = req.Normalize()
	key := indexKey(channelID)
	start := int64(req.Offset())
	end := start + int64(req.Limit) - 1

	var (
		ids   []string
		total int64
	)
	n, err := d.cache.LLen(ctx, key).Result()
	if err == nil && n > 0 {
		total = n
		// LRANGE 只取当前页需要的 id
		ids, err = d.cache.LRange(ctx, key, start, end).Result()
		if err != nil {
			return nil, err
		}
	} else {
		all, err := d.loadIndex(ctx, channelID)
		if err != nil {
			return nil, err
		}
		total = int64(len(all))
		if start < total {
			stop := start + int64(req.Limit)
			if stop > total {
				stop = total
			}
			ids = all[start:stop]
		}
	}

	profiles, err := d.loadProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}
	return query.NewPage(profiles, total, req), nil
}

// Invalidate 订阅关系变化后删除频道索引，并推进版本号
func (d *SubscriberDirectory) Invalidate(ctx context.Context, channelID string) {
	_, err := d.cache.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(channelID))
		pipe.Del(ctx, indexKey(channelID))
		return nil
	})
	if err != nil {
		logger.Warn("subscriber index invalidate failed", zap.String("channel", channelID), zap.Error(err))
	}
}

// InvalidateProfile 用户资料变化后删除快照
func (d *SubscriberDirectory) InvalidateProfile(ctx context.Context, userID string) {
	if err := d.cache.Del(ctx, profileKey(userID)).Err(); err != nil {
		logger.Warn("profile snapshot invalidate failed", zap.String("user", userID), zap.Error(err))
	}
}

func (d *SubscriberDirectory) loadIndex(ctx context.Context, channelID string) ([]string, error) {
	verKey := versionKey(channelID)
	before, verErr := d.cache.Get(ctx, verKey).Result()
	if errors.Is(verErr, redis.Nil) {
		verErr = nil
	}

	d.simulateDB()
	d.indexLoads.Add(1)

	ids, err := d.subs.ListSubscriberIDs(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 || verErr != nil {
		// 版本号不可读时不回填，直接返回库里的结果
		return ids, nil
	}

	// 读库期间发生过失效则放弃回填；WATCH 覆盖比对与写入之间的窗口
	key := indexKey(channelID)
	err = d.cache.Watch(ctx, func(tx *redis.Tx) error {
		now, err := tx.Get(ctx, verKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if now != before {
			return errStaleIndex
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, interfaceSlice(ids)...)
			pipe.Expire(ctx, key, d.ttl)
			return nil
		})
		return err
	}, verKey)
	switch {
	case err == nil:
	case errors.Is(err, errStaleIndex), errors.Is(err, redis.TxFailedErr):
		logger.Debug("subscriber index write skipped, invalidated during load", zap.String("channel", channelID))
	default:
		logger.Warn("subscriber index write failed", zap.String("channel", channelID), zap.Error(err))
	}
	return ids, nil
}

func (d *SubscriberDirectory) loadProfiles(ctx context.Context, ids []string) ([]model.OwnerProfile, error) {
	if len(ids) == 0 {
		return []model.OwnerProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	cached := make(map[string]model.OwnerProfile, len(ids))
	if vals, err := d.cache.MGet(ctx, keys...).Result(); err == nil {
		for i, v := range vals {
			str, ok := v.(string)
			if !ok {
				continue
			}
			var p model.OwnerProfile
			if uErr := json.Unmarshal([]byte(str), &p); uErr == nil {
				cached[ids[i]] = p
			}
		}
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := cached[id]; !ok {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		d.simulateDB()
		d.profileLoads.Add(1)

		profiles, err := d.users.ListProfiles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, p := range profiles {
			cached[p.ID] = p
			if payload, err := json.Marshal(p); err == nil {
				_ = d.cache.Set(ctx, profileKey(p.ID), payload, d.ttl).Err()
			}
		}
	}

	// 保持索引顺序；已删除的用户被跳过
	result := make([]model.OwnerProfile, 0, len(ids))
	for _, id := range ids {
		if p, ok := cached[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (d *SubscriberDirectory) simulateDB() {
	if d.dbDelay > 0 {
		time.Sleep(d.dbDelay)
	}
}

func interfaceSlice(strs []string) []interface{} {
	result := make([]interface{}, len(strs))
	for i, s := range strs {
		result[i] = s
	}
	return result
}

// ResetCounters clears recorded db call counters.
func (d *SubscriberDirectory) ResetCounters() {
	d.indexLoads.Store(0)
	d.profileLoads.Store(0)
}

// Counters reports how many underlying DB loads were executed.
func (d *SubscriberDirectory) Counters() DBCounters {
	return DBCounters{
		IndexLoads:   d.indexLoads.Load(),
		ProfileLoads: d.profileLoads.Load(),
	}
}

// DBCounters summarises DB hits during a run.
type DBCounters struct {
	IndexLoads   int64
	ProfileLoads int64
}
