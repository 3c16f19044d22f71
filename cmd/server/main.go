// @title VidTube API
// @version 1.0
// @description 视频分享后端：用户、视频、评论、点赞、播放列表、订阅与动态
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/api"
	"github.com/d60-Lab/vidtube/internal/api/handler"
	"github.com/d60-Lab/vidtube/internal/api/middleware"
	"github.com/d60-Lab/vidtube/internal/app"
	"github.com/d60-Lab/vidtube/pkg/database"
	"github.com/d60-Lab/vidtube/pkg/logger"
	"github.com/d60-Lab/vidtube/pkg/mailer"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
	"github.com/d60-Lab/vidtube/pkg/tracing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer func() { _ = database.Close(db) }()

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
	}

	store, err := objectstore.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object store: %w", err)
	}

	a, err := app.New(app.Deps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Store:  store,
		Mailer: mailer.New(cfg.Mail),
	})
	if err != nil {
		return err
	}

	stopProvision := a.ProvisionWorker.Start()
	stopJanitor := a.Janitor.Start(cfg.Janitor.Workers)

	handler.RegisterValidators()
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go sweepLimiter(ctx, limiter)

	var mediaPath string
	if u, err := url.Parse(cfg.Storage.BaseURL); err == nil {
		mediaPath = u.Path
	}
	router := api.NewRouter(a.Handler, a.Tokens, api.Options{
		Mode:        cfg.Server.Mode,
		ServiceName: cfg.Tracing.ServiceName,
		Tracing:     cfg.Tracing.Enabled,
		Swagger:     cfg.Server.Mode != "release",
		MaxUploadMB: cfg.Server.MaxUploadMB,
		MediaPath:   mediaPath,
		MediaRoot:   cfg.Storage.Root,
		Limiter:     limiter,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopProvision(shutdownCtx); err != nil {
		logger.Warn("provision worker shutdown", zap.Error(err))
	}
	if err := stopJanitor(shutdownCtx); err != nil {
		logger.Warn("media janitor shutdown", zap.Error(err))
	}
	return nil
}

// sweepLimiter 定期清理空闲 IP 的令牌桶
func sweepLimiter(ctx context.Context, l *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}
