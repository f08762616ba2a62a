package ports

import (
	"context"

	"github.com/viralforge/autopilot/internal/contracts"
)

// Notifier delivers workflow events. Delivery is fire-and-forget from the
// workflow's point of view: failures are logged by callers, never propagated.
type Notifier interface {
	Publish(ctx context.Context, event contracts.EventEnvelope) error
}
