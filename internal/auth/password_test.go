package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("open sesame")
	require.NoError(t, err)
	assert.NotEqual(t, "open sesame", hash)

	assert.True(t, CheckPasswordHash("open sesame", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
	assert.False(t, CheckPasswordHash("open sesame", "not-a-hash"))
}

func TestRandomPassword(t *testing.T) {
	a := RandomPassword()
	b := RandomPassword()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
