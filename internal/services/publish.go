package services

import (
	"context"

	"budgetwise/internal/events"
	"budgetwise/internal/logger"
)

// publish notifies subscribers of a committed write. Delivery failures are
// logged; the write itself has already succeeded.
func publish(p events.Publisher, kind events.Kind, userID, resourceID string) {
	if p == nil {
		return
	}
	if err := p.Publish(context.Background(), events.New(kind, userID, resourceID)); err != nil {
		logger.Named("events").Errorw("failed to publish event",
			"error", err,
			"kind", kind,
			"user_id", userID,
			"resource_id", resourceID,
		)
	}
}
