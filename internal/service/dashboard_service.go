package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
)

// ChannelStats 频道汇总
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// DashboardService 频道所有者的统计面板
type DashboardService interface {
	Stats(ctx context.Context, actorID string) (*ChannelStats, error)
	ChannelVideos(ctx context.Context, actorID string, req query.PageRequest) (*query.Page[model.Video], error)
}

type dashboardService struct {
	videos repository.VideoRepository
	likes  repository.LikeRepository
	subs   repository.SubscriptionRepository
}

func NewDashboardService(videos repository.VideoRepository, likes repository.LikeRepository, subs repository.SubscriptionRepository) DashboardService {
	return &dashboardService{videos: videos, likes: likes, subs: subs}
}

// Stats 各项计数并发读取，全部完成后返回；任一失败则整体失败
func (s *dashboardService) Stats(ctx context.Context, actorID string) (*ChannelStats, error) {
	var st ChannelStats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalVideos, err = s.videos.CountByOwner(gctx, actorID)
		return err
	})
	g.Go(func() (err error) {
		st.TotalViews, err = s.videos.SumViewsByOwner(gctx, actorID)
		return err
	})
	g.Go(func() (err error) {
		st.TotalLikes, err = s.likes.CountForOwnerVideos(gctx, actorID)
		return err
	})
	g.Go(func() (err error) {
		st.TotalSubscribers, err = s.subs.CountSubscribers(gctx, actorID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeErr(err, "channel stats")
	}
	return &st, nil
}

func (s *dashboardService) ChannelVideos(ctx context.Context, actorID string, req query.PageRequest) (*query.Page[model.Video], error) {
	page, err := s.videos.Page(ctx, channelVideosSpec(actorID), req)
	if err != nil {
		return nil, storeErr(err, "video")
	}
	return page, nil
}
