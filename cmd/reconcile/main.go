// reconcile 扫描缺少默认播放列表引用的用户并补齐，可在部署后或定时任务中运行
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/database"
	"github.com/d60-Lab/vidtube/pkg/logger"
)

func main() {
	batch := flag.Int("batch", 200, "users per scan batch")
	dryRun := flag.Bool("dry-run", false, "only report incomplete users")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("init db", zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = database.Close(db) }()

	users := repository.NewUserRepository(db)
	tasks := repository.NewProvisionTaskRepository(db)
	prov := service.NewProvisioner(users, repository.NewPlaylistRepository(db))

	ctx := context.Background()
	var scanned, repaired, failed int
	after := ""
	for {
		list, err := users.ListIncomplete(ctx, after, *batch)
		if err != nil {
			logger.Error("scan users", zap.Error(err))
			os.Exit(1)
		}
		if len(list) == 0 {
			break
		}
		for _, u := range list {
			scanned++
			after = u.ID
			if *dryRun {
				fmt.Printf("incomplete: %s (%s)\n", u.ID, u.Username)
				continue
			}
			if _, err := prov.EnsureDefaultPlaylists(ctx, u.ID); err != nil {
				failed++
				logger.Warn("repair user", zap.String("user_id", u.ID), zap.Error(err))
				continue
			}
			repaired++
			// 已补齐的用户同时关闭其补偿任务
			if err := tasks.MarkDone(ctx, u.ID); err != nil {
				logger.Warn("close provision task", zap.String("user_id", u.ID), zap.Error(err))
			}
		}
	}
	fmt.Printf("scanned=%d repaired=%d failed=%d\n", scanned, repaired, failed)
	if failed > 0 {
		os.Exit(2)
	}
}
