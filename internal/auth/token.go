package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/d60-Lab/vidtube/config"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims 访问令牌携带的身份信息
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims 刷新令牌只携带用户 id；jti 保证同一秒内签发的令牌也不相同
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// TokenPair 一次登录/刷新签发的两枚令牌
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenCodec signs and verifies HS256 tokens with separate access/refresh secrets.
type TokenCodec struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenCodec 根据 jwt 配置创建
func NewTokenCodec(cfg config.JWTConfig) (*TokenCodec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("jwt secrets are required")
	}
	return &TokenCodec{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

// Identity is the subset of a user that goes into an access token.
type Identity struct {
	ID       string
	Email    string
	Username string
	FullName string
}

// Issue 签发访问令牌与刷新令牌
func (c *TokenCodec) Issue(id Identity) (*TokenPair, error) {
	now := c.now()
	access := &AccessClaims{
		UserID:           id.ID,
		Email:            id.Email,
		Username:         id.Username,
		FullName:         id.FullName,
		RegisteredClaims: c.registered(id.ID, now, c.accessTTL),
	}
	refresh := &RefreshClaims{
		UserID:           id.ID,
		RegisteredClaims: c.registered(id.ID, now, c.refreshTTL),
	}

	at, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(c.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	rt, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(c.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: at, RefreshToken: rt}, nil
}

func (c *TokenCodec) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

// VerifyAccess 校验访问令牌
func (c *TokenCodec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(token, claims, c.accessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh 校验刷新令牌
func (c *TokenCodec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(token, claims, c.refreshSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (c *TokenCodec) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
