// Package handler holds the event handlers wired onto the bus at start-up.
package handler

import (
	"log/slog"

	"github.com/amirasaad/masroofy/pkg/domain/events"
	"github.com/amirasaad/masroofy/pkg/eventbus"
)

// Register wires every handler onto bus.
func Register(bus eventbus.Bus, names NameInvalidator, logger *slog.Logger) {
	tracker := NewIdempotencyTracker()
	bus.Register(
		events.EventTypeTransactionRecorded,
		WithIdempotency(
			HandleTransactionRecorded(logger),
			tracker,
			TransactionKey,
			"audit.TransactionRecorded",
			logger,
		),
	)

	invalidate := HandleDependentNameChange(names, logger)
	bus.Register(events.EventTypeDependentRenamed, invalidate)
	bus.Register(events.EventTypeDependentDeleted, invalidate)
}
