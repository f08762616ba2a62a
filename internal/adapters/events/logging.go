package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/viralforge/autopilot/internal/contracts"
)

// LoggingNotifier writes events to the structured log instead of a broker.
// Used when no Kafka brokers are configured.
type LoggingNotifier struct {
	logger *slog.Logger
}

func NewLoggingNotifier(logger *slog.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

func (n *LoggingNotifier) Publish(ctx context.Context, event contracts.EventEnvelope) error {
	n.logger.InfoContext(ctx, "event emitted",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
	)
	return nil
}

// MemoryNotifier records events for assertions in tests.
type MemoryNotifier struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{events: make([]contracts.EventEnvelope, 0, 32)}
}

func (n *MemoryNotifier) Publish(_ context.Context, event contracts.EventEnvelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *MemoryNotifier) Events() []contracts.EventEnvelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

// ByType returns recorded events of one type.
func (n *MemoryNotifier) ByType(eventType string) []contracts.EventEnvelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []contracts.EventEnvelope
	for _, e := range n.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
