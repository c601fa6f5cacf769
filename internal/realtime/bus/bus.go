package bus

import (
	"context"

	"github.com/learnpulse/learnpulse-backend/internal/realtime"
)

// Bus fans SSE messages out across API instances. Services publish to it
// instead of the local hub so a user's stream receives playback and profile
// events no matter which instance handled the request. Every instance runs
// one forwarder into its own hub, including the publisher.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
