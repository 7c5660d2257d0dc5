// Package jwt JWT 管理器单元测试
package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(expire time.Duration) *Manager {
	return NewManager(&Config{
		Secret:           "test-secret",
		AccessExpireTime: expire,
		Issuer:           "field-booking",
	})
}

func TestGenerateAndParse(t *testing.T) {
	m := newTestManager(time.Hour)

	token, expiresAt, err := m.GenerateAccessToken(42, "staff")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Greater(t, expiresAt, time.Now().Unix())

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.StaffID)
	assert.Equal(t, "staff", claims.Role)
	assert.Equal(t, "field-booking", claims.Issuer)
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager(-time.Hour)

	token, _, err := m.GenerateAccessToken(1, "staff")
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseToken_Malformed(t *testing.T) {
	m := newTestManager(time.Hour)

	_, err := m.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestParseToken_WrongSecret(t *testing.T) {
	m := newTestManager(time.Hour)
	token, _, err := m.GenerateAccessToken(1, "admin")
	require.NoError(t, err)

	other := NewManager(&Config{Secret: "other-secret", AccessExpireTime: time.Hour, Issuer: "field-booking"})
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
