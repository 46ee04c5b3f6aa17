// Package service provides the business logic of the wallet application.
// It is organized into sub-packages:
//   - directory: guardian and dependent accounts
//   - wallet: deposit, transfer and expense
//   - ledger: history and analytics views
//   - auth: login and token issuance
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/masroofy/pkg/domain"
	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/domain/ledger"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/amirasaad/masroofy/pkg/repository"
	"github.com/google/uuid"
)

// LogFailure logs err at error level for storage faults and at warn level
// for business rejections, then returns it unchanged.
func LogFailure(logger *slog.Logger, msg string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrStorageUnavailable) {
		logger.Error(msg, "error", err)
	} else {
		logger.Warn(msg, "error", err)
	}
	return err
}

// Publish emits evt after a committed change. A nil bus is allowed. Failures
// are logged and never undo the change.
func Publish(ctx context.Context, bus eventbus.Bus, logger *slog.Logger, evt events.Event) {
	if bus == nil {
		return
	}
	if err := bus.Emit(ctx, evt); err != nil {
		logger.Error("Failed to publish event", "event_type", evt.Type(), "error", err)
	}
}

// CanSee reports whether actorID may read tx: as a party, or as the guardian
// of a current dependent that is a party.
func CanSee(
	ctx context.Context,
	accounts repository.AccountRepository,
	actorID uuid.UUID,
	tx *ledger.Transaction,
) (bool, error) {
	if tx.Involves(actorID) {
		return true, nil
	}
	actor, err := accounts.Get(ctx, actorID)
	if err != nil {
		return false, err
	}
	if !actor.IsGuardian() {
		return false, nil
	}
	ids, err := accounts.DependentIDs(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if tx.Involves(id) {
			return true, nil
		}
	}
	return false, nil
}
