package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/internal/testutil"
)

// cancelOnFind 在查找默认列表时取消 worker 的 ctx，模拟停机打断
type cancelOnFind struct {
	repository.PlaylistRepository
	cancel context.CancelFunc
}

func (c *cancelOnFind) FindDefault(ctx context.Context, ownerID string, kind model.DefaultKind) (*model.Playlist, error) {
	c.cancel()
	return nil, ctx.Err()
}

func TestProvisionWorker_CancelledRunReleasesTask(t *testing.T) {
	f := newFixture(t)
	f.playlists.fail.Store(true)
	u := f.register(t, "frank")
	f.playlists.fail.Store(false)

	ctx, cancel := context.WithCancel(testutil.Ctx())
	defer cancel()
	users := repository.NewUserRepository(f.db)
	interrupted := NewProvisioner(users, &cancelOnFind{PlaylistRepository: f.playlists, cancel: cancel})

	n, err := NewProvisionWorker(f.tasks, interrupted, 1, 10, time.Hour).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	task, err := f.tasks.Get(testutil.Ctx(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionPending, task.Status, "interrupted task must go back to pending")
	assert.Nil(t, task.ClaimedAt)
	assert.NotEmpty(t, task.LastError)

	n, err = NewProvisionWorker(f.tasks, f.prov, 1, 10, time.Hour).ProcessOnce(testutil.Ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err = f.tasks.Get(testutil.Ctx(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionDone, task.Status)
}

func TestProvisionWorker_ReclaimsAbandonedTask(t *testing.T) {
	f := newFixture(t)
	f.playlists.fail.Store(true)
	u := f.register(t, "gina")
	f.playlists.fail.Store(false)

	// 上一个领取者崩溃：任务停在 processing，租约已过期
	stale := time.Now().Add(-time.Hour)
	require.NoError(t, f.db.Model(&model.ProvisionTask{}).Where("user_id = ?", u.ID).
		Updates(map[string]any{"status": model.ProvisionProcessing, "claimed_at": stale}).Error)

	w := NewProvisionWorker(f.tasks, f.prov, 1, 10, time.Hour).WithLease(time.Minute)
	n, err := w.ProcessOnce(testutil.Ctx())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.identity.CurrentUser(testutil.Ctx(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDefaultPlaylists())

	task, err := f.tasks.Get(testutil.Ctx(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionDone, task.Status)
}
