package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTx(t *testing.T, repo repository.TransactionRepository, tx *ledger.Transaction, err error, at time.Time) *ledger.Transaction {
	t.Helper()
	require.NoError(t, err)
	tx.CreatedAt = at
	require.NoError(t, repo.Create(context.Background(), tx))
	return tx
}

func TestTransactionRepository_ListAndSum(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(newSQLiteDB(t))
	g, kid, stranger := uuid.New(), uuid.New(), uuid.New()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	dep, err := ledger.NewDeposit(g, 50000, "Wallet top-up")
	seedTx(t, repo, dep, err, base)
	tr, err := ledger.NewTransfer(g, kid, 20000, "Allowance transfer to kid")
	seedTx(t, repo, tr, err, base.Add(time.Hour))
	ex, err := ledger.NewExpense(kid, 5000, "lunch")
	seedTx(t, repo, ex, err, base.Add(2*time.Hour))
	other, err := ledger.NewExpense(stranger, 100, "gum")
	seedTx(t, repo, other, err, base.Add(3*time.Hour))

	all, err := repo.List(ctx, repository.TransactionFilter{Parties: []uuid.UUID{g, kid}})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ex.ID, all[0].ID)
	assert.Equal(t, tr.ID, all[1].ID)
	assert.Equal(t, dep.ID, all[2].ID)

	limited, err := repo.List(ctx, repository.TransactionFilter{Parties: []uuid.UUID{g, kid}, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	incoming, err := repo.List(ctx, repository.TransactionFilter{Parties: []uuid.UUID{kid}, ReceiverID: &kid})
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, ledger.KindTransfer, incoming[0].Kind)
	assert.Equal(t, money.Amount(20000), incoming[0].Amount)

	window, err := repo.List(ctx, repository.TransactionFilter{
		From: base.Add(30 * time.Minute),
		To:   base.Add(150 * time.Minute),
	})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	totals, err := repo.Sum(ctx, repository.TransactionFilter{Kind: ledger.KindTransfer, ReceiverID: &kid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Count)
	assert.Equal(t, money.Amount(20000), totals.Amount)

	none, err := repo.Sum(ctx, repository.TransactionFilter{Kind: ledger.KindDeposit, ReceiverID: &kid})
	require.NoError(t, err)
	assert.Zero(t, none.Count)
	assert.Zero(t, none.Amount)
}

func TestTransactionRepository_GetAndUpdateDescription(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepository(newSQLiteDB(t))
	ex, err := ledger.NewExpense(uuid.New(), 250, "snack")
	seedTx(t, repo, ex, err, time.Now().UTC())

	require.NoError(t, repo.UpdateDescription(ctx, ex.ID, "afternoon snack"))
	got, err := repo.Get(ctx, ex.ID)
	require.NoError(t, err)
	assert.Equal(t, "afternoon snack", got.Description)
	assert.Equal(t, money.Amount(250), got.Amount)
	assert.Nil(t, got.ReceiverID)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateDescription(ctx, uuid.New(), "x"), domain.ErrNotFound)
}

func TestTransactionRepository_Sum_Postgres(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)
	kid := uuid.New()

	mock.ExpectQuery(`SELECT CAST\(COALESCE\(SUM\(amount\), 0\) AS BIGINT\) AS total, COUNT\(\*\) AS count FROM "transactions" WHERE receiver_id = \$1 AND kind = \$2`).
		WithArgs(kid, "transfer").
		WillReturnRows(sqlmock.NewRows([]string{"total", "count"}).AddRow(int64(30000), int64(2)))

	totals, err := repo.Sum(context.Background(), repository.TransactionFilter{Kind: ledger.KindTransfer, ReceiverID: &kid})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(30000), totals.Amount)
	assert.Equal(t, int64(2), totals.Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
