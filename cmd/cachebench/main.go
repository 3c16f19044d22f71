package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/internal/cacheperf"
	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/service"
	"github.com/d60-Lab/vidtube/pkg/database"
)

type request struct {
	channelID string
	page      query.PageRequest
}

type lister func(ctx context.Context, channelID string, req query.PageRequest) (*query.Page[model.OwnerProfile], error)

func main() {
	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=vidtube_bench port=5434 sslmode=disable"
	}
	db := must(gorm.Open(postgres.Open(dsn), database.GormConfig("silent")))

	mustDo(db.Exec("DROP TABLE IF EXISTS subscriptions CASCADE").Error)
	mustDo(db.Exec("DROP TABLE IF EXISTS users CASCADE").Error)
	mustDo(db.AutoMigrate(&model.User{}, &model.Subscription{}))

	userCount := envInt("USERS", 20000)
	reqCount := envInt("REQS", 3000)

	fmt.Println("Setting up test data...")
	channels := seed(db, userCount)
	fmt.Printf("Test data ready: %d channels, %d users with overlapping subscribers\n", len(channels), userCount)

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6380"
	}
	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer client.Close()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis at %s: %v", redisAddr, err))
	}

	subs := repository.NewSubscriptionRepository(db)
	users := repository.NewUserRepository(db)
	direct := service.NewSubscriptionService(subs, users, nil)
	dir := cacheperf.NewSubscriberDirectory(subs, users, client, 10*time.Minute)

	var reqs []request
	for _, ch := range channels {
		reqs = append(reqs, makeRequests(ch, reqCount)...)
	}

	noCache := runScenario(ctx, client, nil, reqs, false, direct.ChannelSubscribers)
	cold := runScenario(ctx, client, dir, reqs, false, dir.Page)
	warm := runScenario(ctx, client, dir, reqs, true, dir.Page)

	fmt.Printf("\nChannel subscriber list latency (%d req across %d channels, %d users, PostgreSQL + Redis)\n",
		len(reqs), len(channels), userCount)
	for _, r := range []struct {
		name string
		res  scenarioResult
	}{{"No cache", noCache}, {"Directory (cold)", cold}, {"Directory (warm)", warm}} {
		fmt.Printf("%-18s avg=%v p95=%v p99=%v db_index=%d db_profile=%d cache_keys=%d mem=%s\n",
			r.name, avg(r.res.durations), pct(r.res.durations, 0.95), pct(r.res.durations, 0.99),
			r.res.counters.IndexLoads, r.res.counters.ProfileLoads, r.res.cacheKeys, formatBytes(r.res.memoryBytes))
	}
}

// seed 创建 3 个频道，订阅者两两重叠一半
func seed(db *gorm.DB, userCount int) []string {
	channels := make([]model.User, 3)
	for i := range channels {
		name := fmt.Sprintf("channel%d", i+1)
		channels[i] = model.User{ID: uuid.NewString(), Username: name, Email: name + "@example.com", FullName: name, Password: "secret"}
	}
	mustDo(db.Create(&channels).Error)

	viewers := make([]model.User, userCount)
	for i := range viewers {
		viewers[i] = model.User{
			ID:       uuid.NewString(),
			Username: fmt.Sprintf("user_%d", i),
			Email:    fmt.Sprintf("user_%d@example.com", i),
			FullName: fmt.Sprintf("User %d", i),
			Password: "secret",
		}
	}
	mustDo(db.CreateInBatches(&viewers, 1000).Error)

	base := time.Now()
	half := userCount / 2
	offsets := []int{0, userCount / 4, userCount * 3 / 8}
	for ci, ch := range channels {
		rows := make([]model.Subscription, half)
		for i := 0; i < half; i++ {
			rows[i] = model.Subscription{
				ID:           uuid.NewString(),
				SubscriberID: viewers[(i+offsets[ci])%userCount].ID,
				ChannelID:    ch.ID,
				CreatedAt:    base.Add(-time.Duration(i) * time.Second),
			}
		}
		mustDo(db.CreateInBatches(&rows, 1000).Error)
	}

	ids := make([]string, len(channels))
	for i, ch := range channels {
		ids[i] = ch.ID
	}
	return ids
}

type scenarioResult struct {
	durations   []time.Duration
	counters    cacheperf.DBCounters
	cacheKeys   int
	memoryBytes int64
}

func runScenario(ctx context.Context, client *redis.Client, dir *cacheperf.SubscriberDirectory, reqs []request, warm bool, call lister) scenarioResult {
	client.FlushAll(ctx)
	if dir != nil {
		dir.ResetCounters()
	}

	if warm {
		fmt.Print("  Warming cache...")
		for _, r := range reqs {
			if _, err := call(ctx, r.channelID, r.page); err != nil {
				panic(err)
			}
		}
		fmt.Println(" done")
	}

	fmt.Print("  Running benchmark...")
	out := make([]time.Duration, 0, len(reqs))
	for _, r := range reqs {
		start := time.Now()
		if _, err := call(ctx, r.channelID, r.page); err != nil {
			panic(err)
		}
		out = append(out, time.Since(start))
	}
	fmt.Println(" done")

	res := scenarioResult{durations: out}
	if dir != nil {
		res.counters = dir.Counters()
	}
	keys, _ := client.Keys(ctx, "*").Result()
	res.cacheKeys = len(keys)
	if info, err := client.Info(ctx, "memory").Result(); err == nil {
		res.memoryBytes = parseRedisMemory(info)
	}
	return res
}

// parseRedisMemory 从 INFO memory 中取 used_memory
func parseRedisMemory(info string) int64 {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
			n, _ := strconv.ParseInt(v, 10, 64)
			return n
		}
	}
	return 0
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func makeRequests(channelID string, n int) []request {
	sizes := []int{20, 40, 60}
	out := make([]request, n)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < n; i++ {
		size := sizes[rnd.Intn(len(sizes))]
		page := 1
		if rnd.Float64() > 0.72 {
			// 深分页
			page = 2 + rnd.Intn(120)
		}
		out[i] = request{channelID: channelID, page: query.PageRequest{Page: page, Limit: size}}
	}
	return out
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range vs {
		sum += v
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
