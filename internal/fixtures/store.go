// Package fixtures provides test stores and seed helpers shared by service
// and handler tests.
package fixtures

import (
	"context"
	"fmt"
	"testing"

	infrarepo "github.com/amirasaad/masroofy/infra/repository"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "secret123"

func init() {
	utils.PasswordCost = bcrypt.MinCost
}

// Store bundles a private in-memory database with its unit of work.
type Store struct {
	DB  *gorm.DB
	UoW *infrarepo.UoW
}

// NewStore opens a fresh in-memory SQLite database with the schema applied.
// Connections are capped at one so concurrent writers serialize the way row
// locks serialize them on postgres.
func NewStore(t testing.TB) *Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(infrarepo.Models()...))
	return &Store{DB: db, UoW: infrarepo.NewUoW(db)}
}

// Close closes the underlying pool so later calls fail with a storage error.
func (s *Store) Close(t testing.TB) {
	t.Helper()
	sqlDB, err := s.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

// SeedGuardian inserts a guardian with the given opening balance.
func (s *Store) SeedGuardian(t testing.TB, name string, balance money.Amount) *account.Account {
	t.Helper()
	a, err := account.NewGuardian(name, name+"@example.com").
		WithHashedPassword(hash(t)).
		WithBalance(balance).
		Build()
	require.NoError(t, err)
	s.create(t, a)
	return a
}

// SeedDependent inserts a dependent of guardianID with the given balance.
func (s *Store) SeedDependent(t testing.TB, guardianID uuid.UUID, name string, balance money.Amount) *account.Account {
	t.Helper()
	a, err := account.NewDependent(guardianID, name).
		WithHashedPassword(hash(t)).
		WithBalance(balance).
		Build()
	require.NoError(t, err)
	s.create(t, a)
	return a
}

// Balance reads the stored balance of id.
func (s *Store) Balance(t testing.TB, id uuid.UUID) money.Amount {
	t.Helper()
	a, err := infrarepo.NewAccountRepository(s.DB).Get(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}

// Delete soft-deletes id.
func (s *Store) Delete(t testing.TB, id uuid.UUID) {
	t.Helper()
	require.NoError(t, infrarepo.NewAccountRepository(s.DB).Delete(context.Background(), id))
}

func (s *Store) create(t testing.TB, a *account.Account) {
	t.Helper()
	require.NoError(t, infrarepo.NewAccountRepository(s.DB).Create(context.Background(), a))
}

func hash(t testing.TB) string {
	t.Helper()
	h, err := utils.HashPassword(DefaultPassword)
	require.NoError(t, err)
	return h
}
