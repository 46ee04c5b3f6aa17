package account_test

import (
	"testing"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Guardian(t *testing.T) {
	g, err := account.NewGuardian("  Mona ", "Mona@Example.com").Build()
	require.NoError(t, err)
	assert.Equal(t, "Mona", g.Username)
	assert.Equal(t, "mona@example.com", g.Email)
	assert.True(t, g.IsGuardian())
	assert.Nil(t, g.GuardianID)
	assert.Zero(t, g.Balance)
}

func TestBuild_DependentNeedsGuardian(t *testing.T) {
	_, err := account.New().WithRole(account.RoleDependent).WithUsername("kid").Build()
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	guardianID := uuid.New()
	d, err := account.NewDependent(guardianID, "kid").Build()
	require.NoError(t, err)
	assert.True(t, d.IsDependentOf(guardianID))
	assert.False(t, d.IsDependentOf(uuid.New()))
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		builder *account.Builder
	}{
		{"unknown role", account.New().WithRole("admin").WithUsername("root")},
		{"short name", account.NewGuardian("a", "a@b.c")},
		{"long name", account.NewGuardian("abcdefghijklmnopqrstuvwxyz0123456789", "a@b.c")},
		{"guardian with guardian", account.NewGuardian("mona", "m@x.io").WithGuardian(uuid.New())},
		{"negative balance", account.NewGuardian("mona", "m@x.io").WithBalance(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			assert.Error(t, err)
		})
	}
}

func TestCanView(t *testing.T) {
	g, err := account.NewGuardian("mona", "m@x.io").Build()
	require.NoError(t, err)
	other, err := account.NewGuardian("omar", "o@x.io").Build()
	require.NoError(t, err)
	kid, err := account.NewDependent(g.ID, "kid").Build()
	require.NoError(t, err)

	assert.True(t, g.CanView(g))
	assert.True(t, g.CanView(kid))
	assert.True(t, kid.CanView(kid))
	assert.False(t, kid.CanView(g))
	assert.False(t, other.CanView(kid))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, account.ValidatePassword("12345"), domain.ErrInvalidInput)
	assert.NoError(t, account.ValidatePassword("123456"))
}
