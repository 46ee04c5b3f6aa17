package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
	"github.com/google/uuid"
)

// NameInvalidator drops a cached display name.
type NameInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID) error
}

func dependentID(e events.Event) (uuid.UUID, bool) {
	switch evt := e.(type) {
	case events.DependentRenamed:
		return evt.DependentID, true
	case *events.DependentRenamed:
		return evt.DependentID, evt != nil
	case events.DependentDeleted:
		return evt.DependentID, true
	case *events.DependentDeleted:
		return evt.DependentID, evt != nil
	}
	return uuid.Nil, false
}

// HandleDependentNameChange evicts the dependent's cached name after a rename
// or delete so history shows the current value.
func HandleDependentNameChange(names NameInvalidator, logger *slog.Logger) eventbus.HandlerFunc {
	log := logger.With("handler", "names.DependentNameChange")
	return func(ctx context.Context, e events.Event) error {
		id, ok := dependentID(e)
		if !ok {
			log.Error("unexpected event type", "event_type", fmt.Sprintf("%T", e))
			return fmt.Errorf("names: unexpected event %T", e)
		}
		if err := names.Invalidate(ctx, id); err != nil {
			log.Warn("failed to invalidate cached name", "dependent_id", id, "error", err)
			return err
		}
		log.Debug("cached name invalidated", "dependent_id", id, "event_type", e.Type())
		return nil
	}
}
