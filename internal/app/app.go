// Package app wires repositories, services, workers and handlers together.
package app

import (
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/api/handler"
	"github.com/d60-Lab/vidtube/internal/auth"
	"github.com/d60-Lab/vidtube/internal/cacheperf"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/mailer"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

// Deps 外部依赖；Redis 为 nil 时订阅者列表直接查库
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Store  objectstore.Store
	Mailer mailer.Sender
	// BcryptCost 为 0 时使用默认 cost
	BcryptCost int
}

// App 装配结果
type App struct {
	Handler         *handler.Handler
	Tokens          *auth.TokenCodec
	Provisioner     *service.Provisioner
	ProvisionWorker *service.ProvisionWorker
	Janitor         *service.MediaJanitor
	Directory       *cacheperf.SubscriberDirectory
	Services        handler.Services
}

// New 按依赖装配全部组件（不启动后台 worker）
func New(d Deps) (*App, error) {
	cfg := d.Config
	tokens, err := auth.NewTokenCodec(cfg.JWT)
	if err != nil {
		return nil, err
	}

	users := repository.NewUserRepository(d.DB)
	videos := repository.NewVideoRepository(d.DB)
	comments := repository.NewCommentRepository(d.DB)
	tweets := repository.NewTweetRepository(d.DB)
	likes := repository.NewLikeRepository(d.DB)
	subs := repository.NewSubscriptionRepository(d.DB)
	playlists := repository.NewPlaylistRepository(d.DB)
	tasks := repository.NewProvisionTaskRepository(d.DB)
	otps := repository.NewOTPRepository(d.DB)

	a := &App{Tokens: tokens}
	a.Provisioner = service.NewProvisioner(users, playlists)
	a.ProvisionWorker = service.NewProvisionWorker(tasks, a.Provisioner,
		cfg.Provision.Workers, cfg.Provision.ClaimLimit, cfg.Provision.PollInterval).
		WithLease(cfg.Provision.ClaimLease)
	a.Janitor = service.NewMediaJanitor(d.Store, cfg.Janitor.QueueSize)

	var (
		index    service.SubscriberIndex
		profiles service.ProfileCache
	)
	if d.Redis != nil {
		a.Directory = cacheperf.NewSubscriberDirectory(subs, users, d.Redis, cfg.Redis.TTL)
		index, profiles = a.Directory, a.Directory
	}

	a.Services = handler.Services{
		Identity: service.NewIdentityService(service.IdentityDeps{
			DB:          d.DB,
			Users:       users,
			Videos:      videos,
			Subs:        subs,
			Tasks:       tasks,
			OTPs:        otps,
			Provisioner: a.Provisioner,
			Hasher:      auth.NewHasher(d.BcryptCost),
			Tokens:      tokens,
			Store:       d.Store,
			Janitor:     a.Janitor,
			Mailer:      d.Mailer,
			Profiles:    profiles,
			OTP:         cfg.OTP,
		}),
		Videos:       service.NewVideoService(videos, playlists, a.Provisioner, d.Store, a.Janitor),
		Comments:     service.NewCommentService(comments, videos),
		Tweets:       service.NewTweetService(tweets, users),
		Likes:        service.NewLikeService(likes, videos, comments, tweets),
		Subscription: service.NewSubscriptionService(subs, users, index),
		Playlists:    service.NewPlaylistService(playlists, videos, users, a.Provisioner),
		Dashboard:    service.NewDashboardService(videos, likes, subs),
	}
	a.Handler = handler.New(a.Services, handler.CookieOptions{
		Secure:     cfg.Server.Mode == "release",
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})
	return a, nil
}
