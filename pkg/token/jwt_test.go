package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	tokenString, err := m.GenerateToken(42, "Ada", "alumni")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := m.VerifyToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, "alumni", claims.Role)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)
	other := NewJWTManager("another-secret", 1, 7)

	tokenString, err := m.GenerateToken(1, "Bob", "student")
	require.NoError(t, err)

	_, err = other.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	// 过期时间为 0 小时的 access token 立即失效
	m := NewJWTManager("test-secret", 0, 7)

	tokenString, err := m.GenerateToken(1, "Bob", "student")
	require.NoError(t, err)

	_, err = m.VerifyToken(tokenString)
	assert.Error(t, err)
}

func TestJWTManager_GarbageToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)
	_, err := m.VerifyToken("not-a-jwt")
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	s1 := GenerateRandomString(16)
	s2 := GenerateRandomString(16)
	assert.Len(t, s1, 32) // hex 编码后长度翻倍
	assert.NotEqual(t, s1, s2)
}
