// Package commands contains command DTOs for service and handler orchestration.
package commands

import (
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// Deposit tops up the acting guardian's wallet.
type Deposit struct {
	ActorID uuid.UUID
	Amount  money.Amount
}

// Transfer moves allowance from the acting guardian to one of its dependents.
type Transfer struct {
	ActorID     uuid.UUID
	DependentID uuid.UUID
	Amount      money.Amount
}

// Expense records spending by the actor.
type Expense struct {
	ActorID     uuid.UUID
	Amount      money.Amount
	Description string
}

// UpdateDescription edits the free text of an existing ledger entry.
type UpdateDescription struct {
	ActorID       uuid.UUID
	TransactionID uuid.UUID
	Description   string
}
