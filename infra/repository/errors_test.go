package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, domain.ErrNotFound},
		{"wrapped not found", fmt.Errorf("query: %w", gorm.ErrRecordNotFound), domain.ErrNotFound},
		{"duplicated key", gorm.ErrDuplicatedKey, domain.ErrNameTaken},
		{"pg unique violation", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, domain.ErrNameTaken},
		{"pg balance check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: BalanceCheckConstraint}, domain.ErrInsufficientFunds},
		{"pg guardian link check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "accounts_guardian_link"}, domain.ErrStorageUnavailable},
		{"pg transaction amount check", &pgconn.PgError{Code: pgerrcode.CheckViolation, ConstraintName: "transactions_amount_check"}, domain.ErrStorageUnavailable},
		{"pg unnamed check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, domain.ErrStorageUnavailable},
		{"sqlite balance check", errors.New("CHECK constraint failed: accounts_balance_check"), domain.ErrInsufficientFunds},
		{"sqlite other check", errors.New("CHECK constraint failed: chk_transactions_amount"), domain.ErrStorageUnavailable},
		{"sqlite unique", errors.New("UNIQUE constraint failed: accounts.username"), domain.ErrNameTaken},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), domain.ErrStorageUnavailable},
		{"deadline", context.DeadlineExceeded, domain.ErrStorageUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGormErrorToDomain(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
			if tt.want == domain.ErrStorageUnavailable {
				assert.NotErrorIs(t, got, domain.ErrInsufficientFunds)
			}
		})
	}
}

func TestCheckViolationsOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewAccountRepository(db)
	g := mustGuardian(t, "mona")
	require.NoError(t, repo.Create(ctx, g))

	err := WrapError(func() error {
		return db.Exec("UPDATE accounts SET balance = -1 WHERE id = ?", g.ID).Error
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	err = WrapError(func() error {
		return db.Create(&Transaction{ID: uuid.New(), Kind: "deposit", Amount: 0, ReceiverID: &g.ID, Description: "x"}).Error
	})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.NotErrorIs(t, err, domain.ErrInsufficientFunds)
}
