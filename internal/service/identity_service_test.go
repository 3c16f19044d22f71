package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/testutil"
	"github.com/d60-Lab/vidtube/pkg/apperror"
)

func TestRegister_ProvisionsPrivateDefaultPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "alice")

	require.True(t, u.HasDefaultPlaylists())
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "password-alice", u.Password)

	var pls []model.Playlist
	require.NoError(t, f.db.Where("owner_id = ?", u.ID).Order("name").Find(&pls).Error)
	require.Len(t, pls, 3)
	names := []string{pls[0].Name, pls[1].Name, pls[2].Name}
	assert.Equal(t, []string{"Liked Videos", "Watch History", "Watch Later"}, names)
	for _, p := range pls {
		assert.True(t, p.IsDefault)
		assert.False(t, p.IsPublic)
	}

	task, err := f.tasks.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionDone, task.Status)

	// 非所有者看不到私有的默认列表
	bob := f.register(t, "bob")
	page, err := f.playlist.ListUserPlaylists(ctx, u.ID, bob.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Docs)

	page, err = f.playlist.ListUserPlaylists(ctx, u.ID, u.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, page.Docs, 3)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.identity.Register(testutil.Ctx(), RegisterInput{
		FullName: "  ", Email: "a@example.com", Username: "a", Password: "secret",
	})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestRegister_ConflictIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	f.register(t, "alice")

	_, err := f.identity.Register(ctx, RegisterInput{
		FullName: "Other", Email: "other@example.com", Username: "ALICE", Password: "password",
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict), "username differs only by case")

	_, err = f.identity.Register(ctx, RegisterInput{
		FullName: "Other", Email: "Alice@Example.COM", Username: "other", Password: "password",
	})
	assert.True(t, apperror.Is(err, apperror.KindConflict), "email differs only by case")
}

func TestRegister_AvatarUploadFailureIsDependency(t *testing.T) {
	f := newFixture(t)
	f.store.failPut = true
	_, err := f.identity.Register(testutil.Ctx(), RegisterInput{
		FullName: "Alice", Email: "alice@example.com", Username: "alice", Password: "password",
		Avatar: &Upload{Filename: "a.png", Body: strings.NewReader("png")},
	})
	assert.True(t, apperror.Is(err, apperror.KindDependency))

	var n int64
	require.NoError(t, f.db.Model(&model.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRegister_ProvisioningFailureIsRepairedByWorker(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()

	f.playlists.fail.Store(true)
	u := f.register(t, "carol")
	assert.False(t, u.HasDefaultPlaylists(), "identity is returned even when provisioning fails")

	task, err := f.tasks.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionPending, task.Status)
	assert.NotEmpty(t, task.LastError)

	f.playlists.fail.Store(false)
	w := NewProvisionWorker(f.tasks, f.prov, 1, 10, time.Hour)
	n, err := w.ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.identity.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDefaultPlaylists())

	task, err = f.tasks.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionDone, task.Status)
}

func TestWatchHistory_RepairsMissingDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()

	f.playlists.fail.Store(true)
	u := f.register(t, "dave")
	f.playlists.fail.Store(false)

	page, err := f.identity.WatchHistory(ctx, u.ID, query.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, page.Docs)

	got, err := f.identity.CurrentUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDefaultPlaylists())
}

func TestEnsureDefaultPlaylists_NeverReassigns(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "erin")
	before := u.DefaultPlaylistID(model.DefaultWatchLater)

	again, err := f.identity.EnsureDefaultPlaylists(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, before, again.DefaultPlaylistID(model.DefaultWatchLater))

	var n int64
	require.NoError(t, f.db.Model(&model.Playlist{}).Where("owner_id = ?", u.ID).Count(&n).Error)
	assert.EqualValues(t, 3, n)
}

func TestProvisionWorker_ClosesTaskOfMissingUser(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	_, err := f.tasks.Create(ctx, "ghost")
	require.NoError(t, err)

	n, err := NewProvisionWorker(f.tasks, f.prov, 1, 10, time.Hour).ProcessOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	task, err := f.tasks.Get(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, model.ProvisionDone, task.Status)
}

func TestLoginRefreshLogout(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	f.register(t, "alice")

	_, err := f.identity.Login(ctx, LoginInput{Username: "nobody", Password: "x"})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.identity.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.KindAuth))

	sess, err := f.identity.Login(ctx, LoginInput{Email: "ALICE@example.com", Password: "password-alice"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.AccessToken)

	rotated, err := f.identity.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, sess.RefreshToken, rotated.RefreshToken)

	_, err = f.identity.Refresh(ctx, sess.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.KindAuth), "a rotated refresh token cannot be reused")

	require.NoError(t, f.identity.Logout(ctx, sess.User.ID))
	_, err = f.identity.Refresh(ctx, rotated.RefreshToken)
	assert.True(t, apperror.Is(err, apperror.KindAuth))
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "alice")

	err := f.identity.ChangePassword(ctx, u.ID, "password-alice", "short")
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	err = f.identity.ChangePassword(ctx, u.ID, "wrong-password", "long-enough-password")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	require.NoError(t, f.identity.ChangePassword(ctx, u.ID, "password-alice", "long-enough-password"))
	_, err = f.identity.Login(ctx, LoginInput{Username: "alice", Password: "long-enough-password"})
	assert.NoError(t, err)
}

func TestUpdateAccount_EmailConflict(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	_, err := f.identity.UpdateAccount(ctx, alice.ID, "", "BOB@example.com")
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	got, err := f.identity.UpdateAccount(ctx, alice.ID, "Alice Liddell", "")
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", got.FullName)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestUpdateAvatar_ReplacesImage(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "alice")

	got, err := f.identity.UpdateAvatar(ctx, u.ID, &Upload{Filename: "me.png", Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.True(t, f.store.has(got.Avatar))

	_, err = f.identity.UpdateCoverImage(ctx, u.ID, nil)
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestChannelProfile_Counts(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	carol := f.register(t, "carol")

	_, err := f.subs.ToggleSubscription(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.subs.ToggleSubscription(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.subs.ToggleSubscription(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	p, err := f.identity.ChannelProfile(ctx, "ALICE", bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.SubscribersCount)
	assert.EqualValues(t, 1, p.ChannelsSubscribedToCount)
	assert.True(t, p.IsSubscribed)

	p, err = f.identity.ChannelProfile(ctx, "alice", "")
	require.NoError(t, err)
	assert.False(t, p.IsSubscribed)

	_, err = f.identity.ChannelProfile(ctx, "nobody", "")
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestEmailOTP(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "alice")

	require.NoError(t, f.identity.SendVerificationOTP(ctx, u.ID))
	code := f.mail.lastCode()
	require.Len(t, code, 6)
	assert.Equal(t, "alice@example.com", f.mail.to)

	_, err := f.identity.VerifyEmailOTP(ctx, u.ID, "12ab56")
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, err = f.identity.VerifyEmailOTP(ctx, u.ID, wrong)
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	got, err := f.identity.VerifyEmailOTP(ctx, u.ID, code)
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	err = f.identity.SendVerificationOTP(ctx, u.ID)
	assert.True(t, apperror.Is(err, apperror.KindValidation), "already verified")
}

func TestEmailOTP_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	u := f.register(t, "alice")

	f.identity.now = func() time.Time { return time.Now().Add(-10 * time.Minute) }
	require.NoError(t, f.identity.SendVerificationOTP(ctx, u.ID))
	f.identity.now = time.Now

	_, err := f.identity.VerifyEmailOTP(ctx, u.ID, f.mail.lastCode())
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestEmailOTP_MailFailureIsDependency(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	f.mail.err = errors.New("smtp down")

	err := f.identity.SendVerificationOTP(testutil.Ctx(), u.ID)
	assert.True(t, apperror.Is(err, apperror.KindDependency))

	var n int64
	require.NoError(t, f.db.Model(&model.OTP{}).Count(&n).Error)
	assert.Zero(t, n, "no code is stored when the mail was not sent")
}
