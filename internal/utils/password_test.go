package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))

	ok, err := VerifyPassword("s3cret-pass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyWrongPassword(t *testing.T) {
	encoded, err := HashPassword("s3cret-pass")
	require.NoError(t, err)

	ok, err := VerifyPassword("wrong-pass", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	first, err := HashPassword("same-password")
	require.NoError(t, err)
	second, err := HashPassword("same-password")
	require.NoError(t, err)

	// 盐随机，两次哈希不应相同
	assert.NotEqual(t, first, second)

	ok, err := VerifyPassword("same-password", second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMalformedHash(t *testing.T) {
	cases := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$onlyfiveparts",
		"$bcrypt$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}
	for _, encoded := range cases {
		_, err := VerifyPassword("whatever", encoded)
		assert.Error(t, err, "encoded=%q", encoded)
	}
}

func TestHashPasswordWithConfig(t *testing.T) {
	cfg := &PasswordConfig{Time: 2, Memory: 32 * 1024, Threads: 2, KeyLen: 16}

	encoded, err := HashPasswordWithConfig("s3cret-pass", cfg)
	require.NoError(t, err)
	assert.Contains(t, encoded, "m=32768,t=2,p=2")

	ok, err := VerifyPassword("s3cret-pass", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}
