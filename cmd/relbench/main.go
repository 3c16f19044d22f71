// relbench 并发切换点赞的压测：统计延迟，并校验每个 (用户, 视频) 至多一条点赞
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer func() { _ = database.Close(db) }()

	videos := repository.NewVideoRepository(db)
	likes := repository.NewLikeRepository(db)
	likeSvc := service.NewLikeService(likes, videos, repository.NewCommentRepository(db), repository.NewTweetRepository(db))
	dash := service.NewDashboardService(videos, likes, repository.NewSubscriptionRepository(db))

	ctx := context.Background()
	N := envInt("N", 10000)
	CONC := envInt("CONC", 8)
	// 每个用户并发发起的切换次数；>1 时制造同一对的竞争
	RACE := envInt("RACE", 2)
	PAGE := envInt("PAGE", 50)

	// celeb 是频道主，其余用户给同一个视频点赞
	celeb := model.User{ID: uuid.NewString(), Username: "celeb_" + uuid.NewString()[:8], FullName: "celeb", Password: "p"}
	celeb.Email = celeb.Username + "@example.com"
	must(0, db.Create(&celeb).Error)
	video := model.Video{
		ID: uuid.NewString(), OwnerID: celeb.ID, Title: "hot", VideoFile: "v", Thumbnail: "t", IsPublished: true,
	}
	must(0, db.Create(&video).Error)

	users := make([]model.User, N)
	for i := range users {
		id := uuid.NewString()
		users[i] = model.User{ID: id, Username: "u" + id[:8], Email: id[:8] + "@example.com", FullName: "u", Password: "p"}
	}
	must(0, db.CreateInBatches(&users, 1000).Error)

	feed := make(chan int, N)
	for i := 0; i < N; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu      sync.Mutex
		recs    = make([]time.Duration, 0, N*RACE)
		added   int
		removed int
		failed  int
		wg      sync.WaitGroup
	)
	t0 := time.Now()
	for w := 0; w < CONC; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				var inner sync.WaitGroup
				for r := 0; r < RACE; r++ {
					inner.Add(1)
					go func() {
						defer inner.Done()
						st := time.Now()
						res, err := likeSvc.ToggleVideoLike(ctx, users[i].ID, video.ID)
						d := time.Since(st)
						mu.Lock()
						defer mu.Unlock()
						recs = append(recs, d)
						switch {
						case err != nil:
							failed++
						case res.State == service.StateAdded:
							added++
						default:
							removed++
						}
					}()
				}
				inner.Wait()
			}
		}()
	}
	wg.Wait()
	toggleDur := time.Since(t0)

	var dupPairs int64
	must(0, db.Raw(`SELECT COUNT(*) FROM (
		SELECT liked_by, target_id FROM likes WHERE target_id = ? GROUP BY liked_by, target_id HAVING COUNT(*) > 1
	) d`, video.ID).Scan(&dupPairs).Error)
	rows := must(likes.CountForOwnerVideos(ctx, celeb.ID))

	q0 := time.Now()
	stats := must(dash.Stats(ctx, celeb.ID))
	statsDur := time.Since(q0)

	q1 := time.Now()
	_, _ = likeSvc.LikedVideos(ctx, users[0].ID, query.PageRequest{Page: 1, Limit: PAGE})
	likedDur := time.Since(q1)

	fmt.Printf("N=%d, CONC=%d, RACE=%d, PAGE=%d\n", N, CONC, RACE, PAGE)
	fmt.Printf("Toggle total: %v, ops: %d, p50: %v, p95: %v, p99: %v\n",
		toggleDur, len(recs), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	fmt.Printf("Results: added=%d removed=%d failed=%d rows=%d duplicate_pairs=%d\n", added, removed, failed, rows, dupPairs)
	fmt.Printf("Dashboard stats latency: %v (likes=%d views=%d)\n", statsDur, stats.TotalLikes, stats.TotalViews)
	fmt.Printf("Liked videos(%d) latency: %v\n", PAGE, likedDur)
	if dupPairs > 0 {
		os.Exit(1)
	}
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
