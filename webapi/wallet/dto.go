package wallet

import (
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// DepositRequest is the body of POST /wallet/deposit.
type DepositRequest struct {
	Amount money.Amount `json:"amount" validate:"required"`
}

// TransferRequest is the body of POST /wallet/transfer.
type TransferRequest struct {
	DependentID string       `json:"dependent_id" validate:"required,uuid"`
	Amount      money.Amount `json:"amount" validate:"required"`
}

// BalanceDTO is the caller's current balance.
type BalanceDTO struct {
	AccountID uuid.UUID    `json:"account_id"`
	Balance   money.Amount `json:"balance"`
}
