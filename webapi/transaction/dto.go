package transaction

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/dto"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// ExpenseRequest is the body of POST /transactions/expense.
type ExpenseRequest struct {
	Amount      money.Amount `json:"amount" validate:"required"`
	Description string       `json:"description" validate:"required,max=255"`
}

// UpdateDescriptionRequest is the body of PATCH /transactions/:id.
type UpdateDescriptionRequest struct {
	Description string `json:"description" validate:"required,max=255"`
}

// TransactionDTO is a raw ledger entry.
type TransactionDTO struct {
	ID          uuid.UUID    `json:"id"`
	Kind        string       `json:"type"`
	Amount      money.Amount `json:"amount"`
	SenderID    *uuid.UUID   `json:"sender_id,omitempty"`
	ReceiverID  *uuid.UUID   `json:"receiver_id,omitempty"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HistoryItemDTO is a ledger entry annotated for the caller.
type HistoryItemDTO struct {
	ID           uuid.UUID    `json:"id"`
	Kind         string       `json:"type"`
	Amount       money.Amount `json:"amount"`
	Description  string       `json:"description"`
	Direction    string       `json:"direction"`
	SenderID     *uuid.UUID   `json:"sender_id,omitempty"`
	SenderName   string       `json:"sender_name"`
	ReceiverID   *uuid.UUID   `json:"receiver_id,omitempty"`
	ReceiverName string       `json:"receiver_name"`
	Counterpart  string       `json:"counterpart"`
	CreatedAt    time.Time    `json:"created_at"`
}

func ToTransactionDTO(tx *ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Amount:      tx.Amount,
		SenderID:    tx.SenderID,
		ReceiverID:  tx.ReceiverID,
		Description: tx.Description,
		CreatedAt:   tx.CreatedAt,
	}
}

func ToHistoryItemDTO(item dto.HistoryItem) HistoryItemDTO {
	return HistoryItemDTO{
		ID:           item.ID,
		Kind:         string(item.Kind),
		Amount:       item.Amount,
		Description:  item.Description,
		Direction:    string(item.Direction),
		SenderID:     item.SenderID,
		SenderName:   item.SenderName,
		ReceiverID:   item.ReceiverID,
		ReceiverName: item.ReceiverName,
		Counterpart:  item.Counterpart,
		CreatedAt:    item.CreatedAt,
	}
}
