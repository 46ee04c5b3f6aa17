package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/amirasaad/masroofy/pkg/money"
)

// transactionRecorded accepts both the emitted value and the pointer a broker
// decodes.
func transactionRecorded(e events.Event) (events.TransactionRecorded, bool) {
	switch evt := e.(type) {
	case events.TransactionRecorded:
		return evt, true
	case *events.TransactionRecorded:
		if evt == nil {
			return events.TransactionRecorded{}, false
		}
		return *evt, true
	}
	return events.TransactionRecorded{}, false
}

// TransactionKey keys TransactionRecorded events by transaction id.
func TransactionKey(e events.Event) string {
	if evt, ok := transactionRecorded(e); ok {
		return evt.TransactionID.String()
	}
	return ""
}

// HandleTransactionRecorded writes one audit line per committed ledger entry.
func HandleTransactionRecorded(logger *slog.Logger) eventbus.HandlerFunc {
	log := logger.With("handler", "audit.TransactionRecorded")
	return func(ctx context.Context, e events.Event) error {
		evt, ok := transactionRecorded(e)
		if !ok {
			log.Error("unexpected event type", "event_type", fmt.Sprintf("%T", e))
			return fmt.Errorf("audit: unexpected event %T", e)
		}
		attrs := []any{
			"transaction_id", evt.TransactionID,
			"kind", evt.Kind,
			"amount", money.Amount(evt.Amount).String(),
			"actor_id", evt.ActorID,
			"occurred_at", evt.OccurredAt,
		}
		if evt.SenderID != nil {
			attrs = append(attrs, "sender_id", *evt.SenderID)
		}
		if evt.ReceiverID != nil {
			attrs = append(attrs, "receiver_id", *evt.ReceiverID)
		}
		log.Info("transaction recorded", attrs...)
		return nil
	}
}
