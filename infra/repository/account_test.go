package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGuardian(t *testing.T, name string) *account.Account {
	t.Helper()
	a, err := account.NewGuardian(name, name+"@example.com").WithHashedPassword("hash").Build()
	require.NoError(t, err)
	return a
}

func mustDependent(t *testing.T, guardianID uuid.UUID, name string) *account.Account {
	t.Helper()
	a, err := account.NewDependent(guardianID, name).WithHashedPassword("hash").Build()
	require.NoError(t, err)
	return a
}

func TestAccountRepository_AdjustBalance_Postgres(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance \+ \$1,"updated_at"=\$2 WHERE \(id = \$3 AND balance \+ \$4 >= 0\)`).
		WithArgs(int64(-500), sqlmock.AnyArg(), id, int64(-500)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT "balance" FROM "accounts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(int64(1500)))

	bal, err := repo.AdjustBalance(context.Background(), id, money.FromCents(-500))
	require.NoError(t, err)
	assert.Equal(t, money.Amount(1500), bal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_AdjustBalance_Postgres_Insufficient(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	id := uuid.New()

	mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := repo.AdjustBalance(context.Background(), id, money.FromCents(-500))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_AdjustBalance_Postgres_StorageFault(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := repo.AdjustBalance(context.Background(), uuid.New(), money.FromCents(100))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAccountRepository_AdjustBalance(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newSQLiteDB(t))
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))

	bal, err := repo.AdjustBalance(ctx, g.ID, 50000)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(50000), bal)

	_, err = repo.AdjustBalance(ctx, g.ID, -50001)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	bal, err = repo.AdjustBalance(ctx, g.ID, -50000)
	require.NoError(t, err)
	assert.Zero(t, bal)

	_, err = repo.AdjustBalance(ctx, uuid.New(), 100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_CreateNameTaken(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newSQLiteDB(t))
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))

	// dependents share the guardian namespace
	err := repo.Create(ctx, mustDependent(t, g.ID, "mona"))
	assert.ErrorIs(t, err, domain.ErrNameTaken)
}

func TestAccountRepository_Lookups(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newSQLiteDB(t))
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))
	kid := mustDependent(t, g.ID, "kid")
	require.NoError(t, repo.Create(ctx, kid))

	got, err := repo.Get(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, "kid", got.Username)
	assert.True(t, got.IsDependentOf(g.ID))
	assert.Empty(t, got.Email)

	byName, err := repo.GetByUsername(ctx, "mona")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, g.ID, byName.ID)

	byEmail, err := repo.GetByEmail(ctx, "mona@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	missing, err := repo.GetByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAccountRepository_DependentsAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newSQLiteDB(t))
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))
	a := mustDependent(t, g.ID, "ali")
	b := mustDependent(t, g.ID, "sara")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	deps, err := repo.ListDependents(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, deps, 2)

	require.NoError(t, repo.Delete(ctx, a.ID))
	ids, err := repo.DependentIDs(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b.ID}, ids)

	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, a.ID), domain.ErrNotFound)

	names, err := repo.Names(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]string{a.ID: "ali", b.ID: "sara"}, names)
}

func TestAccountRepository_RenameAndPassword(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository(newSQLiteDB(t))
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))
	kid := mustDependent(t, g.ID, "kid")
	require.NoError(t, repo.Create(ctx, kid))

	require.NoError(t, repo.Rename(ctx, kid.ID, "junior"))
	require.NoError(t, repo.UpdatePassword(ctx, kid.ID, "newhash"))
	got, err := repo.Get(ctx, kid.ID)
	require.NoError(t, err)
	assert.Equal(t, "junior", got.Username)
	assert.Equal(t, "newhash", got.HashedPassword)

	assert.ErrorIs(t, repo.Rename(ctx, kid.ID, "mona"), domain.ErrNameTaken)
	assert.ErrorIs(t, repo.Rename(ctx, uuid.New(), "ghost"), domain.ErrNotFound)
}
