package dto

import (
	"time"

	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/money"
	"github.com/google/uuid"
)

// Display names used when a party is absent or cannot be resolved.
const (
	ExternalParty = "External"
	UnknownParty  = "Unknown"
)

// HistoryItem is a ledger entry annotated for one viewer.
type HistoryItem struct {
	ID           uuid.UUID
	Kind         ledger.Kind
	Amount       money.Amount
	Description  string
	Direction    ledger.Direction // relative to the viewer
	SenderID     *uuid.UUID
	SenderName   string // ExternalParty for deposits
	ReceiverID   *uuid.UUID
	ReceiverName string // UnknownParty for expenses
	Counterpart  string // the other side from the viewer's point of view
	CreatedAt    time.Time
}
