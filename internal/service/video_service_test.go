package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/testutil"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

func TestVideo_PublishRequiresFiles(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")

	_, err := f.video.Publish(ctx, alice.ID, PublishInput{Title: "t", Description: "d",
		VideoFile: &Upload{Filename: "v.mp4", Body: strings.NewReader("v")}})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	f.store.failPut = true
	_, err = f.video.Publish(ctx, alice.ID, PublishInput{Title: "t", Description: "d",
		VideoFile: &Upload{Filename: "v.mp4", Body: strings.NewReader("v")},
		Thumbnail: &Upload{Filename: "t.jpg", Body: strings.NewReader("t")}})
	assert.True(t, apperror.Is(err, apperror.KindDependency))
}

func TestVideo_PublishReturnsOwnerView(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	v := f.publish(t, alice.ID, "intro")

	assert.True(t, v.IsPublished)
	require.NotNil(t, v.Owner)
	assert.Equal(t, "alice", v.Owner.Username)
	assert.True(t, f.store.has(v.VideoFile))
	assert.True(t, f.store.has(v.Thumbnail))
}

func TestVideo_GetCountsViewsAndRecordsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v1 := f.publish(t, alice.ID, "v1")
	v2 := f.publish(t, alice.ID, "v2")

	for _, id := range []string{v1.ID, v1.ID, v2.ID} {
		_, err := f.video.Get(ctx, id, bob.ID)
		require.NoError(t, err)
	}
	got, err := f.video.Get(ctx, v1.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Views)

	h, err := f.identity.WatchHistory(ctx, bob.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID, v1.ID, v1.ID}, videoIDs(h), "most recent first")
}

func TestVideo_UnpublishedVisibleToOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v := f.publish(t, alice.ID, "draft")

	got, err := f.video.TogglePublish(ctx, v.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)

	_, err = f.video.Get(ctx, v.ID, bob.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.video.Get(ctx, v.ID, alice.ID)
	assert.NoError(t, err)

	_, err = f.video.TogglePublish(ctx, v.ID, bob.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestVideo_ListFiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.publish(t, alice.ID, "Go basics")
	f.publish(t, alice.ID, "Rust basics")
	f.publish(t, bob.ID, "go advanced")

	page, err := f.video.List(ctx, VideoFilter{Query: "GO", SortBy: "title", SortType: "asc"}, query.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Docs, 2)
	assert.Equal(t, "Go basics", page.Docs[0].Title)

	page, err = f.video.List(ctx, VideoFilter{OwnerID: bob.ID}, query.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Docs, 1)
	assert.Equal(t, "bob", page.Docs[0].Owner.Username)

	_, err = f.video.List(ctx, VideoFilter{SortBy: "password"}, query.PageRequest{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestVideo_UpdateAndDeleteAreOwnerGated(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v := f.publish(t, alice.ID, "v1")

	_, err := f.video.Update(ctx, v.ID, bob.ID, UpdateVideoInput{Title: "hijack"})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	_, err = f.video.Update(ctx, v.ID, alice.ID, UpdateVideoInput{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	got, err := f.video.Update(ctx, v.ID, alice.ID, UpdateVideoInput{
		Title:     "v1 (remastered)",
		Thumbnail: &Upload{Filename: "new.jpg", Body: strings.NewReader("new")},
	})
	require.NoError(t, err)
	assert.Equal(t, "v1 (remastered)", got.Title)
	assert.Equal(t, v.Description, got.Description)
	assert.NotEqual(t, v.Thumbnail, got.Thumbnail)

	err = f.video.Delete(ctx, v.ID, bob.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
	require.NoError(t, f.video.Delete(ctx, v.ID, alice.ID))
	_, err = f.video.Get(ctx, v.ID, alice.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestVideo_DeleteRemovesCommentsAndLikes(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	v := f.publish(t, alice.ID, "v1")

	c, err := f.comment.Add(ctx, v.ID, bob.ID, "nice")
	require.NoError(t, err)
	_, err = f.like.ToggleCommentLike(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	_, err = f.like.ToggleVideoLike(ctx, bob.ID, v.ID)
	require.NoError(t, err)

	require.NoError(t, f.video.Delete(ctx, v.ID, alice.ID))

	var comments, likes int64
	require.NoError(t, f.db.Model(&model.Comment{}).Count(&comments).Error)
	require.NoError(t, f.db.Model(&model.Like{}).Count(&likes).Error)
	assert.Zero(t, comments)
	assert.Zero(t, likes)
}

func TestVideo_DeleteHandsFilesToJanitor(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	v := f.publish(t, alice.ID, "v1")

	janitor := NewMediaJanitor(f.store, 8)
	svc := f.video.(*videoService)
	svc.janitor = janitor

	require.NoError(t, svc.Delete(ctx, v.ID, alice.ID))
	assert.Equal(t, 2, janitor.QueueLen())

	stop := janitor.Start(1)
	require.NoError(t, stop(ctx))
	assert.False(t, f.store.has(v.VideoFile))
	assert.False(t, f.store.has(v.Thumbnail))
}
