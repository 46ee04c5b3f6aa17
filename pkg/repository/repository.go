// Package repository declares the storage contracts of the account directory and the ledger.
package repository

import (
	"context"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/account"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// AccountRepository owns account rows and their balance fields.
type AccountRepository interface {
	// Get returns domain.ErrNotFound when id does not exist.
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// GetByUsername returns nil, nil when no account has the name.
	GetByUsername(ctx context.Context, username string) (*account.Account, error)
	// GetByEmail returns nil, nil when no account has the e-mail.
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	// Create returns domain.ErrNameTaken on a duplicate username or e-mail.
	Create(ctx context.Context, a *account.Account) error
	// AdjustBalance adds delta in one conditional statement and returns the
	// new balance. It fails with domain.ErrInsufficientFunds when the result
	// would be negative, and domain.ErrNotFound for an unknown id.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta money.Amount) (money.Amount, error)
	ListDependents(ctx context.Context, guardianID uuid.UUID) ([]*account.Account, error)
	DependentIDs(ctx context.Context, guardianID uuid.UUID) ([]uuid.UUID, error)
	Rename(ctx context.Context, id uuid.UUID, username string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	// Delete removes the account from the directory. Its ledger rows stay.
	Delete(ctx context.Context, id uuid.UUID) error
	// Names resolves display names, including those of deleted accounts.
	Names(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// TransactionFilter narrows ledger reads. Zero fields do not restrict.
type TransactionFilter struct {
	// Parties matches entries whose sender or receiver is in the set.
	Parties    []uuid.UUID
	SenderID   *uuid.UUID
	ReceiverID *uuid.UUID
	Kind       ledger.Kind
	// From is inclusive, To is exclusive.
	From  time.Time
	To    time.Time
	Limit int
}

// Totals aggregates matching ledger entries.
type Totals struct {
	Count  int64
	Amount money.Amount
}

// TransactionRepository owns ledger entries.
type TransactionRepository interface {
	Create(ctx context.Context, tx *ledger.Transaction) error
	// Get returns domain.ErrNotFound when id does not exist.
	Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	// List returns matches newest first.
	List(ctx context.Context, filter TransactionFilter) ([]*ledger.Transaction, error)
	Sum(ctx context.Context, filter TransactionFilter) (Totals, error)
	UpdateDescription(ctx context.Context, id uuid.UUID, description string) error
}
