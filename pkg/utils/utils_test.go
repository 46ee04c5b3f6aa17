package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hashed, err := HashPassword("allowance-123")
	require.NoError(t, err)
	assert.NotEqual(t, "allowance-123", hashed)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, PasswordCost, cost)
}

func TestCheckPasswordHash(t *testing.T) {
	hashed, err := HashPassword("allowance-123")
	require.NoError(t, err)

	assert.True(t, CheckPasswordHash("allowance-123", hashed))
	assert.False(t, CheckPasswordHash("allowance-124", hashed))
	assert.False(t, CheckPasswordHash("allowance-123", "not-a-hash"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("parent@example.com"))
	assert.True(t, IsEmail("mona.ali@sub.domain.co.uk"))

	assert.False(t, IsEmail("kid"))
	assert.False(t, IsEmail("@example.com"))
	assert.False(t, IsEmail("Mona <mona@example.com>"))
}
