package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/vidtube/config"
)

func newCodec(t *testing.T) *TokenCodec {
	t.Helper()
	c, err := NewTokenCodec(config.JWTConfig{
		AccessSecret:  "access",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh",
		RefreshTTL:    time.Hour,
	})
	require.NoError(t, err)
	return c
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	c := newCodec(t)
	pair, err := c.Issue(Identity{ID: "u1", Email: "a@x.com", Username: "alice", FullName: "Alice"})
	require.NoError(t, err)

	ac, err := c.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", ac.UserID)
	assert.Equal(t, "alice", ac.Username)

	rc, err := c.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", rc.UserID)
}

func TestTokenCodec_SecretsAreNotInterchangeable(t *testing.T) {
	c := newCodec(t)
	pair, err := c.Issue(Identity{ID: "u1"})
	require.NoError(t, err)

	_, err = c.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = c.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_Expired(t *testing.T) {
	c := newCodec(t)
	issued := time.Now().Add(-2 * time.Hour)
	c.now = func() time.Time { return issued }
	pair, err := c.Issue(Identity{ID: "u1"})
	require.NoError(t, err)

	c.now = time.Now
	_, err = c.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCodec_DistinctRefreshTokens(t *testing.T) {
	c := newCodec(t)
	fixed := time.Now()
	c.now = func() time.Time { return fixed }

	a, err := c.Issue(Identity{ID: "u1"})
	require.NoError(t, err)
	b, err := c.Issue(Identity{ID: "u1"})
	require.NoError(t, err)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestTokenCodec_RejectsNoneAlg(t *testing.T) {
	c := newCodec(t)
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &AccessClaims{UserID: "u1"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = c.VerifyAccess(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasher(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	digest, err := h.Hash("s3cret")
	require.NoError(t, err)

	ok, err := h.Compare("s3cret", digest)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Compare("wrong", digest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Compare("s3cret", "not-a-hash")
	assert.Error(t, err)
}
