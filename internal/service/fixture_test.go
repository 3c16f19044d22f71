package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/auth"
	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/testutil"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

// memStore 内存对象存储
type memStore struct {
	mu      sync.Mutex
	objects map[string]string
	seq     int
	failPut bool
}

func newMemStore() *memStore { return &memStore{objects: map[string]string{}} }

func (m *memStore) Put(_ context.Context, kind objectstore.Kind, filename string, r io.Reader) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return "", errors.New("bucket unavailable")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	url := fmt.Sprintf("mem://%s/%d-%s", kind, m.seq, filename)
	m.objects[url] = string(b)
	return url, nil
}

func (m *memStore) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, url)
	return nil
}

func (m *memStore) has(url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[url]
	return ok
}

// stubMailer 记录最后一封邮件
type stubMailer struct {
	mu   sync.Mutex
	to   string
	body string
	err  error
}

func (m *stubMailer) Send(_ context.Context, to, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to, m.body = to, body
	return nil
}

// lastCode 从邮件正文中取出验证码
func (m *stubMailer) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := strings.Index(m.body, ": ")
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(strings.SplitN(m.body[i+2:], "\n", 2)[0])
}

// flakyPlaylists 可以让创建播放列表失败，用于模拟注册后半段出错
type flakyPlaylists struct {
	repository.PlaylistRepository
	fail atomic.Bool
}

func (f *flakyPlaylists) Create(ctx context.Context, p *model.Playlist) error {
	if f.fail.Load() {
		return errors.New("playlist store unavailable")
	}
	return f.PlaylistRepository.Create(ctx, p)
}

type fixture struct {
	db        *gorm.DB
	store     *memStore
	mail      *stubMailer
	playlists *flakyPlaylists
	tasks     repository.ProvisionTaskRepository
	prov      *Provisioner

	identity  *identityService
	playlist  PlaylistService
	video     VideoService
	comment   CommentService
	tweet     TweetService
	like      LikeService
	subs      SubscriptionService
	dashboard DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	users := repository.NewUserRepository(db)
	videos := repository.NewVideoRepository(db)
	comments := repository.NewCommentRepository(db)
	tweets := repository.NewTweetRepository(db)
	likes := repository.NewLikeRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	tasks := repository.NewProvisionTaskRepository(db)
	playlists := &flakyPlaylists{PlaylistRepository: repository.NewPlaylistRepository(db)}

	tokens, err := auth.NewTokenCodec(config.JWTConfig{
		AccessSecret: "access", AccessTTL: time.Minute,
		RefreshSecret: "refresh", RefreshTTL: time.Hour,
	})
	require.NoError(t, err)

	store := newMemStore()
	mail := &stubMailer{}
	prov := NewProvisioner(users, playlists)

	f := &fixture{db: db, store: store, mail: mail, playlists: playlists, tasks: tasks, prov: prov}
	f.identity = NewIdentityService(IdentityDeps{
		DB:          db,
		Users:       users,
		Videos:      videos,
		Subs:        subs,
		Tasks:       tasks,
		OTPs:        repository.NewOTPRepository(db),
		Provisioner: prov,
		Hasher:      auth.NewHasher(bcrypt.MinCost),
		Tokens:      tokens,
		Store:       store,
		Mailer:      mail,
	}).(*identityService)
	f.playlist = NewPlaylistService(playlists, videos, users, prov)
	f.video = NewVideoService(videos, playlists, prov, store, nil)
	f.comment = NewCommentService(comments, videos)
	f.tweet = NewTweetService(tweets, users)
	f.like = NewLikeService(likes, videos, comments, tweets)
	f.subs = NewSubscriptionService(subs, users, nil)
	f.dashboard = NewDashboardService(videos, likes, subs)
	return f
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.identity.Register(testutil.Ctx(), RegisterInput{
		FullName: strings.ToUpper(username[:1]) + username[1:],
		Email:    username + "@example.com",
		Username: username,
		Password: "password-" + username,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) publish(t *testing.T, ownerID, title string) *model.Video {
	t.Helper()
	v, err := f.video.Publish(testutil.Ctx(), ownerID, PublishInput{
		Title:       title,
		Description: title + " description",
		Duration:    42,
		VideoFile:   &Upload{Filename: title + ".mp4", Body: strings.NewReader("video")},
		Thumbnail:   &Upload{Filename: title + ".jpg", Body: strings.NewReader("thumb")},
	})
	require.NoError(t, err)
	return v
}
