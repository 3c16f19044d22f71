package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/internal/auth"
	"github.com/d60-Lab/vidtube/internal/model"
	"github.com/d60-Lab/vidtube/internal/query"
	"github.com/d60-Lab/vidtube/internal/repository"
	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/logger"
	"github.com/d60-Lab/vidtube/pkg/mailer"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

const minPasswordLength = 8

// RegisterInput 注册参数；头像与封面在此层可选
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *Upload
	CoverImage *Upload
}

// LoginInput 用户名与邮箱至少提供一个
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Session 登录/刷新结果
type Session struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// ChannelProfile 频道主页
type ChannelProfile struct {
	ID                        string `json:"_id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// IdentityService 账号、会话与频道资料
type IdentityService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, in LoginInput) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, userID string, up *Upload) (*model.User, error)
	UpdateCoverImage(ctx context.Context, userID string, up *Upload) (*model.User, error)
	ChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string, req query.PageRequest) (*query.Page[model.Video], error)
	SendVerificationOTP(ctx context.Context, userID string) error
	VerifyEmailOTP(ctx context.Context, userID, code string) (*model.User, error)
	EnsureDefaultPlaylists(ctx context.Context, userID string) (*model.User, error)
}

// ProfileCache 用户资料变化时需要失效的缓存（可为空）
type ProfileCache interface {
	InvalidateProfile(ctx context.Context, userID string)
}

// IdentityDeps 依赖集合
type IdentityDeps struct {
	DB          *gorm.DB
	Users       repository.UserRepository
	Videos      repository.VideoRepository
	Subs        repository.SubscriptionRepository
	Tasks       repository.ProvisionTaskRepository
	OTPs        repository.OTPRepository
	Provisioner *Provisioner
	Hasher      *auth.Hasher
	Tokens      *auth.TokenCodec
	Store       objectstore.Store
	Janitor     *MediaJanitor
	Mailer      mailer.Sender
	Profiles    ProfileCache
	OTP         config.OTPConfig
}

type identityService struct {
	IdentityDeps
	now func() time.Time
}

func NewIdentityService(deps IdentityDeps) IdentityService {
	if deps.OTP.Length <= 0 {
		deps.OTP.Length = 6
	}
	if deps.OTP.TTL <= 0 {
		deps.OTP.TTL = 5 * time.Minute
	}
	return &identityService{IdentityDeps: deps, now: time.Now}
}

func normalizeUsername(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *identityService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = normalizeUsername(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.FullName == "" || in.Username == "" || in.Email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.Validation("all fields are required")
	}

	existing, err := s.Users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err == nil && existing != nil {
		return nil, apperror.Conflict("user with email or username already exists")
	}
	if err != nil && !isNotFound(err) {
		return nil, storeErr(err, "user")
	}

	var uploaded []string
	u := &model.User{
		ID:       uuid.New().String(),
		Username: in.Username,
		Email:    in.Email,
		FullName: in.FullName,
	}
	if in.Avatar != nil {
		if u.Avatar, err = putUpload(ctx, s.Store, objectstore.KindImage, in.Avatar); err != nil {
			return nil, err
		}
		uploaded = append(uploaded, u.Avatar)
	}
	if in.CoverImage != nil {
		if u.CoverImage, err = putUpload(ctx, s.Store, objectstore.KindImage, in.CoverImage); err != nil {
			s.discard(uploaded...)
			return nil, err
		}
		uploaded = append(uploaded, u.CoverImage)
	}

	if u.Password, err = s.Hasher.Hash(in.Password); err != nil {
		s.discard(uploaded...)
		return nil, apperror.Internal(err, "failed to hash password")
	}

	// 第一步：用户与补偿任务同一事务落地
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewUserRepository(tx).Create(ctx, u); err != nil {
			return err
		}
		_, err := repository.NewProvisionTaskRepository(tx).Create(ctx, u.ID)
		return err
	})
	if err != nil {
		s.discard(uploaded...)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("user with email or username already exists")
		}
		return nil, storeErr(err, "user")
	}

	// 第二步：创建默认播放列表；失败时任务保持 pending，由 ProvisionWorker 补偿
	provisioned, err := s.Provisioner.EnsureDefaultPlaylists(ctx, u.ID)
	if err != nil {
		logger.Warn("default playlist provisioning deferred", zap.String("user", u.ID), zap.Error(err))
		if mErr := s.Tasks.MarkFailed(ctx, u.ID, err); mErr != nil {
			logger.Error("mark provision task failed", zap.String("user", u.ID), zap.Error(mErr))
		}
		return s.CurrentUser(ctx, u.ID)
	}
	if err := s.Tasks.MarkDone(ctx, u.ID); err != nil {
		logger.Warn("mark provision task done", zap.String("user", u.ID), zap.Error(err))
	}
	return provisioned, nil
}

func (s *identityService) discard(urls ...string) {
	if s.Janitor != nil {
		s.Janitor.Enqueue(urls...)
	}
}

func (s *identityService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	username := normalizeUsername(in.Username)
	email := normalizeEmail(in.Email)
	if username == "" && email == "" {
		return nil, apperror.Validation("username or email is required")
	}
	if in.Password == "" {
		return nil, apperror.Validation("password is required")
	}

	u, err := s.Users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("user does not exist")
		}
		return nil, storeErr(err, "user")
	}
	ok, err := s.Hasher.Compare(in.Password, u.Password)
	if err != nil {
		return nil, apperror.Internal(err, "failed to verify password")
	}
	if !ok {
		return nil, apperror.Auth("invalid user credentials")
	}
	return s.issue(ctx, u)
}

func (s *identityService) issue(ctx context.Context, u *model.User) (*Session, error) {
	pair, err := s.Tokens.Issue(auth.Identity{ID: u.ID, Email: u.Email, Username: u.Username, FullName: u.FullName})
	if err != nil {
		return nil, apperror.Internal(err, "failed to issue tokens")
	}
	if err := s.Users.Update(ctx, u.ID, map[string]any{"refresh_token": pair.RefreshToken}); err != nil {
		return nil, storeErr(err, "user")
	}
	u.RefreshToken = pair.RefreshToken
	return &Session{User: u, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *identityService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperror.Auth("unauthorized request")
	}
	claims, err := s.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, apperror.Auth("invalid refresh token")
	}
	u, err := s.Users.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Auth("invalid refresh token")
		}
		return nil, storeErr(err, "user")
	}
	if subtle.ConstantTimeCompare([]byte(u.RefreshToken), []byte(refreshToken)) != 1 {
		return nil, apperror.Auth("refresh token is expired or used")
	}
	return s.issue(ctx, u)
}

func (s *identityService) Logout(ctx context.Context, userID string) error {
	return storeErr(s.Users.Update(ctx, userID, map[string]any{"refresh_token": ""}), "user")
}

func (s *identityService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperror.Validation("new password must be at least %d characters", minPasswordLength)
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	ok, err := s.Hasher.Compare(oldPassword, u.Password)
	if err != nil {
		return apperror.Internal(err, "failed to verify password")
	}
	if !ok {
		return apperror.Validation("invalid old password")
	}
	digest, err := s.Hasher.Hash(newPassword)
	if err != nil {
		return apperror.Internal(err, "failed to hash password")
	}
	return storeErr(s.Users.Update(ctx, userID, map[string]any{"password": digest}), "user")
}

func (s *identityService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return u, nil
}

func (s *identityService) UpdateAccount(ctx context.Context, userID, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" && email == "" {
		return nil, apperror.Validation("fullName or email is required")
	}

	fields := map[string]any{}
	if fullName != "" {
		fields["full_name"] = fullName
	}
	if email != "" {
		other, err := s.Users.FindByUsernameOrEmail(ctx, "", email)
		if err == nil && other.ID != userID {
			return nil, apperror.Conflict("email is already in use")
		}
		if err != nil && !isNotFound(err) {
			return nil, storeErr(err, "user")
		}
		fields["email"] = email
	}

	if err := s.Users.Update(ctx, userID, fields); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("email is already in use")
		}
		return nil, storeErr(err, "user")
	}
	s.invalidateProfile(ctx, userID)
	return s.CurrentUser(ctx, userID)
}

func (s *identityService) invalidateProfile(ctx context.Context, userID string) {
	if s.Profiles != nil {
		s.Profiles.InvalidateProfile(ctx, userID)
	}
}

func (s *identityService) UpdateAvatar(ctx context.Context, userID string, up *Upload) (*model.User, error) {
	return s.replaceImage(ctx, userID, up, "avatar")
}

func (s *identityService) UpdateCoverImage(ctx context.Context, userID string, up *Upload) (*model.User, error) {
	return s.replaceImage(ctx, userID, up, "cover_image")
}

// replaceImage 先上传新文件并落库，旧文件交给 janitor 异步删除
func (s *identityService) replaceImage(ctx context.Context, userID string, up *Upload, column string) (*model.User, error) {
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := putUpload(ctx, s.Store, objectstore.KindImage, up)
	if err != nil {
		return nil, err
	}
	if err := s.Users.Update(ctx, userID, map[string]any{column: url}); err != nil {
		s.discard(url)
		return nil, storeErr(err, "user")
	}
	old := u.Avatar
	if column == "cover_image" {
		old = u.CoverImage
	}
	s.discard(old)
	s.invalidateProfile(ctx, userID)
	return s.CurrentUser(ctx, userID)
}

func (s *identityService) ChannelProfile(ctx context.Context, username, viewerID string) (*ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, apperror.Validation("username is missing")
	}
	u, err := s.Users.GetByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.NotFound("channel does not exist")
		}
		return nil, storeErr(err, "user")
	}

	p := &ChannelProfile{
		ID:         u.ID,
		Username:   u.Username,
		FullName:   u.FullName,
		Email:      u.Email,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Subs.CountSubscribers(gctx, u.ID)
		p.SubscribersCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.Subs.CountSubscribed(gctx, u.ID)
		p.ChannelsSubscribedToCount = n
		return err
	})
	if viewerID != "" {
		g.Go(func() error {
			ok, err := s.Subs.Exists(gctx, viewerID, u.ID)
			p.IsSubscribed = ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeErr(err, "subscription")
	}
	return p, nil
}

func (s *identityService) WatchHistory(ctx context.Context, userID string, req query.PageRequest) (*query.Page[model.Video], error) {
	u, err := s.EnsureDefaultPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}
	page, err := s.Videos.Page(ctx, playlistVideosSpec(u.DefaultPlaylistID(model.DefaultWatchHistory), true, true), req)
	if err != nil {
		return nil, storeErr(err, "watch history")
	}
	return page, nil
}

func (s *identityService) EnsureDefaultPlaylists(ctx context.Context, userID string) (*model.User, error) {
	return s.Provisioner.EnsureDefaultPlaylists(ctx, userID)
}

func (s *identityService) SendVerificationOTP(ctx context.Context, userID string) error {
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return apperror.Validation("email is already verified")
	}
	code, err := generateOTP(s.OTP.Length)
	if err != nil {
		return apperror.Internal(err, "failed to generate otp")
	}

	body := fmt.Sprintf("Here is your verification code: %s\nIt expires in %s.", code, s.OTP.TTL)
	if err := s.Mailer.Send(ctx, u.Email, "Verification Email", body); err != nil {
		if apperror.Is(err, apperror.KindDependency) {
			return err
		}
		return apperror.Dependency(err, "failed to send verification email")
	}
	return storeErr(s.OTPs.Create(ctx, u.Email, code, s.now().Add(s.OTP.TTL)), "otp")
}

func (s *identityService) VerifyEmailOTP(ctx context.Context, userID, code string) (*model.User, error) {
	if !isDigits(code, s.OTP.Length) {
		return nil, apperror.Validation("otp must be %d digits", s.OTP.Length)
	}
	u, err := s.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.EmailVerified {
		return nil, apperror.Validation("email is already verified")
	}
	latest, err := s.OTPs.Latest(ctx, u.Email, s.now())
	if err != nil {
		if isNotFound(err) {
			return nil, apperror.Validation("otp is expired or invalid")
		}
		return nil, storeErr(err, "otp")
	}
	if subtle.ConstantTimeCompare([]byte(latest.Code), []byte(code)) != 1 {
		return nil, apperror.Validation("invalid otp")
	}
	if err := s.Users.Update(ctx, userID, map[string]any{"email_verified": true}); err != nil {
		return nil, storeErr(err, "user")
	}
	if err := s.OTPs.DeleteByEmail(ctx, u.Email); err != nil {
		logger.Warn("otp cleanup failed", zap.String("user", userID), zap.Error(err))
	}
	return s.CurrentUser(ctx, userID)
}

func generateOTP(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
