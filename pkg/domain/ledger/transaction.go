// Package ledger defines the append-only record of balance-affecting movements.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// MaxDescriptionLength bounds the free-text description, in bytes.
const MaxDescriptionLength = 255

// Kind of ledger entry.
type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindTransfer Kind = "transfer"
	KindExpense  Kind = "expense"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindTransfer, KindExpense:
		return true
	}
	return false
}

// Direction of an entry relative to a viewer.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Filter restricts a history view.
type Filter string

const (
	FilterNone    Filter = ""
	FilterIncome  Filter = "income"
	FilterExpense Filter = "expense"
)

// ParseFilter accepts "", "all", "income" and "expense".
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterNone, FilterIncome, FilterExpense:
		return f, nil
	case "all":
		return FilterNone, nil
	default:
		return FilterNone, domain.Errorf(domain.ErrInvalidInput, "unknown history filter %q", s)
	}
}

// Transaction is an immutable ledger entry. Only Description may be edited.
//
// Invariants:
//   - deposit: SenderID == nil, ReceiverID != nil
//   - expense: ReceiverID == nil, SenderID != nil
//   - transfer: both set and distinct
//   - Amount > 0
type Transaction struct {
	ID          uuid.UUID
	Kind        Kind
	Amount      money.Amount
	SenderID    *uuid.UUID
	ReceiverID  *uuid.UUID
	Description string
	CreatedAt   time.Time
}

// NewDeposit records a top-up into guardianID.
func NewDeposit(guardianID uuid.UUID, amount money.Amount, description string) (*Transaction, error) {
	return newTransaction(KindDeposit, amount, nil, &guardianID, description)
}

// NewTransfer records an allowance from guardianID to dependentID.
func NewTransfer(guardianID, dependentID uuid.UUID, amount money.Amount, description string) (*Transaction, error) {
	return newTransaction(KindTransfer, amount, &guardianID, &dependentID, description)
}

// NewExpense records spending by senderID. The description is required.
func NewExpense(senderID uuid.UUID, amount money.Amount, description string) (*Transaction, error) {
	description, err := NormalizeDescription(description)
	if err != nil {
		return nil, err
	}
	return newTransaction(KindExpense, amount, &senderID, nil, description)
}

func newTransaction(kind Kind, amount money.Amount, sender, receiver *uuid.UUID, description string) (*Transaction, error) {
	tx := &Transaction{
		ID:          uuid.New(),
		Kind:        kind,
		Amount:      amount,
		SenderID:    sender,
		ReceiverID:  receiver,
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Validate checks the kind/party invariants.
func (t *Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return domain.Errorf(domain.ErrInvalidAmount, "amount must be greater than zero")
	}
	if len(t.Description) > MaxDescriptionLength {
		return domain.Errorf(domain.ErrInvalidInput, "description exceeds %d characters", MaxDescriptionLength)
	}
	switch t.Kind {
	case KindDeposit:
		if t.SenderID != nil || t.ReceiverID == nil {
			return fmt.Errorf("%w: deposit requires a receiver and no sender", domain.ErrInvalidInput)
		}
	case KindExpense:
		if t.ReceiverID != nil || t.SenderID == nil {
			return fmt.Errorf("%w: expense requires a sender and no receiver", domain.ErrInvalidInput)
		}
	case KindTransfer:
		if t.SenderID == nil || t.ReceiverID == nil || *t.SenderID == *t.ReceiverID {
			return fmt.Errorf("%w: transfer requires two distinct parties", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown transaction kind %q", domain.ErrInvalidInput, t.Kind)
	}
	return nil
}

// Involves reports whether id is the sender or the receiver.
func (t *Transaction) Involves(id uuid.UUID) bool {
	return t.IsSender(id) || t.IsReceiver(id)
}

// IsSender reports whether id sent the funds.
func (t *Transaction) IsSender(id uuid.UUID) bool {
	return t.SenderID != nil && *t.SenderID == id
}

// IsReceiver reports whether id received the funds.
func (t *Transaction) IsReceiver(id uuid.UUID) bool {
	return t.ReceiverID != nil && *t.ReceiverID == id
}

// DirectionFor returns incoming when viewer is the receiver, outgoing otherwise.
func (t *Transaction) DirectionFor(viewer uuid.UUID) Direction {
	if t.IsReceiver(viewer) {
		return DirectionIncoming
	}
	return DirectionOutgoing
}

// DeltaFor is the signed balance change this entry applied to id.
func (t *Transaction) DeltaFor(id uuid.UUID) money.Amount {
	var delta money.Amount
	if t.IsReceiver(id) {
		delta += t.Amount
	}
	if t.IsSender(id) {
		delta -= t.Amount
	}
	return delta
}

// NormalizeDescription trims s and rejects an empty result.
func NormalizeDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrMissingDescription
	}
	if len(s) > MaxDescriptionLength {
		return "", domain.Errorf(domain.ErrInvalidInput, "description exceeds %d characters", MaxDescriptionLength)
	}
	return s, nil
}
