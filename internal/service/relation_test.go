package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/testutil"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

func countLikes(t *testing.T, f *fixture, actorID, targetID string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Like{}).Where("liked_by = ? AND target_id = ?", actorID, targetID).Count(&n).Error)
	return n
}

// alice 注册、发布、点赞两次后点赞列表为空
func TestLike_AliceScenario(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")

	var pls int64
	require.NoError(t, f.db.Model(&model.Playlist{}).Where("owner_id = ?", alice.ID).Count(&pls).Error)
	assert.EqualValues(t, 3, pls)

	v1 := f.publish(t, alice.ID, "v1")

	res, err := f.like.ToggleVideoLike(ctx, alice.ID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAdded, res.State)
	require.NotNil(t, res.Relation)
	assert.EqualValues(t, 1, countLikes(t, f, alice.ID, v1.ID))

	liked, err := f.like.LikedVideos(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID}, videoIDs(liked))

	res, err = f.like.ToggleVideoLike(ctx, alice.ID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, res.State)
	assert.Zero(t, countLikes(t, f, alice.ID, v1.ID))

	liked, err = f.like.LikedVideos(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, liked.Docs)
}

func TestLike_ToggleSequenceAlternates(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	tw, err := f.tweet.Create(ctx, alice.ID, "hello")
	require.NoError(t, err)

	want := []ToggleState{StateAdded, StateRemoved, StateAdded, StateRemoved}
	for i, w := range want {
		res, err := f.like.ToggleTweetLike(ctx, bob.ID, tw.ID)
		require.NoError(t, err)
		assert.Equal(t, w, res.State, "step %d", i)
		assert.LessOrEqual(t, countLikes(t, f, bob.ID, tw.ID), int64(1))
	}
}

func TestLike_MissingTargetIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")

	_, err := f.like.ToggleVideoLike(ctx, alice.ID, "nope")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.like.ToggleCommentLike(ctx, alice.ID, "nope")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.like.ToggleTweetLike(ctx, alice.ID, "nope")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestLike_ConcurrentTogglesLeaveAtMostOneRelation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	v := f.publish(t, alice.ID, "v1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.like.ToggleVideoLike(ctx, alice.ID, v.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, countLikes(t, f, alice.ID, v.ID), int64(1))
}

func TestSubscription_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	_, err := f.subs.ToggleSubscription(ctx, alice.ID, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = f.subs.ToggleSubscription(ctx, alice.ID, "nobody")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	res, err := f.subs.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAdded, res.State)
	_, err = f.subs.ToggleSubscription(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	page, err := f.subs.ChannelSubscribers(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Docs, 2)
	assert.ElementsMatch(t, []string{"bob", "carol"}, []string{page.Docs[0].Username, page.Docs[1].Username})

	chans, err := f.subs.SubscribedChannels(ctx, bob.ID, query.PageRequest{})
	require.NoError(t, err)
	require.Len(t, chans.Docs, 1)
	assert.Equal(t, alice.ID, chans.Docs[0].ID)

	res, err = f.subs.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, res.State)
	page, err = f.subs.ChannelSubscribers(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 1)
}

// recordingIndex 记录失效调用
type recordingIndex struct {
	mu          sync.Mutex
	invalidated []string
}

func (r *recordingIndex) Page(_ context.Context, _ string, req query.PageRequest) (*query.Page[model.OwnerProfile], error) {
	return query.NewPage[model.OwnerProfile](nil, 0, req), nil
}

func (r *recordingIndex) Invalidate(_ context.Context, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, channelID)
}

func TestSubscription_ToggleInvalidatesIndex(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	idx := &recordingIndex{}
	svc := NewSubscriptionService(f.subs.(*subscriptionService).subs, f.subs.(*subscriptionService).users, idx)
	_, err := svc.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = svc.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, alice.ID}, idx.invalidated)
}

func TestCommentAndTweet_OwnerGated(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v := f.publish(t, alice.ID, "v1")

	_, err := f.comment.Add(ctx, "missing", bob.ID, "hi")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	_, err = f.comment.Add(ctx, v.ID, bob.ID, "   ")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	c, err := f.comment.Add(ctx, v.ID, bob.ID, "first")
	require.NoError(t, err)
	require.NotNil(t, c.Owner)
	assert.Equal(t, "bob", c.Owner.Username)

	_, err = f.comment.Update(ctx, c.ID, alice.ID, "edited by alice")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	c, err = f.comment.Update(ctx, c.ID, bob.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Content)

	page, err := f.comment.ListForVideo(ctx, v.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 1)

	assert.True(t, apperror.Is(f.comment.Delete(ctx, c.ID, alice.ID), apperror.KindForbidden))
	require.NoError(t, f.comment.Delete(ctx, c.ID, bob.ID))

	tw, err := f.tweet.Create(ctx, alice.ID, "hello")
	require.NoError(t, err)
	_, err = f.tweet.Update(ctx, tw.ID, bob.ID, "nope")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	tweets, err := f.tweet.ListByUser(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, tweets.Docs, 1)
	require.NoError(t, f.tweet.Delete(ctx, tw.ID, alice.ID))
	_, err = f.tweet.ListByUser(ctx, "nobody", query.PageRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestDashboard_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v1 := f.publish(t, alice.ID, "v1")
	v2 := f.publish(t, alice.ID, "v2")
	_, err := f.video.TogglePublish(ctx, v2.ID, alice.ID)
	require.NoError(t, err)

	_, err = f.video.Get(ctx, v1.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.like.ToggleVideoLike(ctx, bob.ID, v1.ID)
	require.NoError(t, err)
	_, err = f.subs.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	st, err := f.dashboard.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, ChannelStats{TotalVideos: 2, TotalViews: 1, TotalLikes: 1, TotalSubscribers: 1}, *st)

	page, err := f.dashboard.ChannelVideos(ctx, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 2, "unpublished videos are included")
}
