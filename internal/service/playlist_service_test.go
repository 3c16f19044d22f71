package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/testutil"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

func videoIDs(p *query.Page[model.Video]) []string {
	ids := make([]string, len(p.Docs))
	for i, v := range p.Docs {
		ids[i] = v.ID
	}
	return ids
}

func TestPlaylist_CreateAndAddVideos(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	v1 := f.publish(t, alice.ID, "v1")
	v2 := f.publish(t, alice.ID, "v2")

	_, err := f.playlist.Create(ctx, alice.ID, "  ", "")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "my mix")
	require.NoError(t, err)
	assert.True(t, p.IsPublic)
	assert.False(t, p.IsDefault)
	require.NotNil(t, p.Owner)
	assert.Equal(t, "alice", p.Owner.Username)

	for _, id := range []string{v1.ID, v2.ID, v1.ID} {
		_, err := f.playlist.AddVideo(ctx, p.ID, id, alice.ID)
		require.NoError(t, err)
	}
	_, err = f.playlist.AddVideo(ctx, p.ID, "missing", alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	d, err := f.playlist.Get(ctx, p.ID, "", query.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, d.TotalVideos)
	assert.Equal(t, []string{v1.ID, v2.ID, v1.ID}, videoIDs(d.Videos), "insertion order with duplicates")
}

func TestPlaylist_NonOwnerRemoveIsForbiddenAndNoop(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	mallory := f.register(t, "mallory")
	v1 := f.publish(t, alice.ID, "v1")

	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "")
	require.NoError(t, err)
	_, err = f.playlist.AddVideo(ctx, p.ID, v1.ID, alice.ID)
	require.NoError(t, err)

	_, err = f.playlist.RemoveVideo(ctx, p.ID, v1.ID, mallory.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.playlist.AddVideo(ctx, p.ID, v1.ID, mallory.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	d, err := f.playlist.Get(ctx, p.ID, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID}, videoIDs(d.Videos))
}

func TestPlaylist_DefaultPlaylistsAreLocked(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	wl := alice.DefaultPlaylistID(model.DefaultWatchLater)

	_, err := f.playlist.Rename(ctx, wl, alice.ID, "Renamed", "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.playlist.ToggleVisibility(ctx, wl, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	err = f.playlist.Delete(ctx, wl, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	// 默认列表仍可增删视频
	v1 := f.publish(t, alice.ID, "v1")
	_, err = f.playlist.AddVideo(ctx, wl, v1.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.playlist.RemoveVideo(ctx, wl, v1.ID, alice.ID)
	require.NoError(t, err)
}

func TestPlaylist_UserPlaylistIsRenamable(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "")
	require.NoError(t, err)

	got, err := f.playlist.Rename(ctx, p.ID, alice.ID, "Road trip", "")
	require.NoError(t, err)
	assert.Equal(t, "Road trip", got.Name)

	_, err = f.playlist.Rename(ctx, p.ID, bob.ID, "Mine", "")
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	got, err = f.playlist.ToggleVisibility(ctx, p.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublic)

	_, err = f.playlist.Get(ctx, p.ID, bob.ID, query.PageRequest{})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	err = f.playlist.Save(ctx, p.ID, bob.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	require.NoError(t, f.playlist.Delete(ctx, p.ID, alice.ID))
	_, err = f.playlist.Get(ctx, p.ID, alice.ID, query.PageRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPlaylist_DanglingVideoIsOmittedAndRemovable(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	v1 := f.publish(t, alice.ID, "v1")
	v2 := f.publish(t, alice.ID, "v2")

	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "")
	require.NoError(t, err)
	for _, id := range []string{v1.ID, v2.ID} {
		_, err := f.playlist.AddVideo(ctx, p.ID, id, alice.ID)
		require.NoError(t, err)
	}

	require.NoError(t, f.video.Delete(ctx, v1.ID, alice.ID))

	d, err := f.playlist.Get(ctx, p.ID, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID}, videoIDs(d.Videos))
	assert.EqualValues(t, 1, d.TotalVideos, "dangling entries are not counted")
	assert.Equal(t, d.Videos.TotalDocs, d.TotalVideos)

	_, err = f.playlist.RemoveVideo(ctx, p.ID, v1.ID, alice.ID)
	require.NoError(t, err, "a dangling entry can still be cleaned up")
	d, err = f.playlist.Get(ctx, p.ID, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, d.TotalVideos)

	_, err = f.playlist.RemoveVideo(ctx, p.ID, v1.ID, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestPlaylist_NonOwnerSeesPublishedOnly(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v1 := f.publish(t, alice.ID, "v1")
	v2 := f.publish(t, alice.ID, "v2")
	_, err := f.video.TogglePublish(ctx, v2.ID, alice.ID)
	require.NoError(t, err)

	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "")
	require.NoError(t, err)
	for _, id := range []string{v1.ID, v2.ID} {
		_, err := f.playlist.AddVideo(ctx, p.ID, id, alice.ID)
		require.NoError(t, err)
	}

	d, err := f.playlist.Get(ctx, p.ID, bob.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID}, videoIDs(d.Videos))
	assert.EqualValues(t, 1, d.TotalVideos, "unpublished entries are hidden from the count too")

	d, err = f.playlist.Get(ctx, p.ID, alice.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID, v2.ID}, videoIDs(d.Videos))
}

func TestPlaylist_SaveUnsaveIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	p, err := f.playlist.Create(ctx, alice.ID, "Mix", "")
	require.NoError(t, err)

	require.NoError(t, f.playlist.Save(ctx, p.ID, bob.ID))
	require.NoError(t, f.playlist.Save(ctx, p.ID, bob.ID))
	var n int64
	require.NoError(t, f.db.Model(&model.SavedPlaylist{}).Where("user_id = ?", bob.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.playlist.Unsave(ctx, p.ID, bob.ID))
	require.NoError(t, f.playlist.Unsave(ctx, p.ID, bob.ID))
	require.NoError(t, f.db.Model(&model.SavedPlaylist{}).Where("user_id = ?", bob.ID).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPlaylist_ListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	for i := 0; i < 15; i++ {
		_, err := f.playlist.Create(ctx, alice.ID, fmt.Sprintf("list-%02d", i), "")
		require.NoError(t, err)
	}

	p1, err := f.playlist.ListUserPlaylists(ctx, alice.ID, bob.ID, query.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, p1.Docs, 10)
	assert.True(t, p1.HasNextPage)

	p2, err := f.playlist.ListUserPlaylists(ctx, alice.ID, bob.ID, query.PageRequest{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, p2.Docs, 5)
	assert.False(t, p2.HasNextPage)

	_, err = f.playlist.ListUserPlaylists(ctx, "nobody", bob.ID, query.PageRequest{})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
