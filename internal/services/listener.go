package services

import (
	"context"
	"fmt"
	"log/slog"

	"tourney/internal/amqp"
	"tourney/internal/cache"
)

// InvalidationListener applies mutation events from other instances to the
// local generation store so their writes invalidate this instance's views.
type InvalidationListener struct {
	inv    *cache.Invalidator
	origin string
}

func NewInvalidationListener(inv *cache.Invalidator, origin string) *InvalidationListener {
	return &InvalidationListener{inv: inv, origin: origin}
}

// Handle is an amqp consumer handler. Events this instance published were
// already applied when the write committed and are skipped.
func (l *InvalidationListener) Handle(ctx context.Context, msg *amqp.MutationMessage) error {
	if msg.Origin == l.origin {
		return nil
	}
	if !msg.Entity.Valid() {
		return fmt.Errorf("unknown entity %q: %w", msg.Entity, amqp.ErrDiscard)
	}

	scope := invalidationScope(msg.Entity, msg.EntityID, msg.TournamentID)
	if err := l.inv.Invalidate(ctx, msg.Entity, scope); err != nil {
		return fmt.Errorf("invalidate %s:%s: %w", msg.Entity, scope, err)
	}
	slog.DebugContext(ctx, "Applied remote mutation",
		"entity", msg.Entity,
		"entity_id", msg.EntityID,
		"origin", msg.Origin)
	return nil
}
