package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse-backend/internal/platform/logger"
)

// SSEClient is one open event stream. A user holds at most one per token
// session; see SSEHub.Register.
type SSEClient struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SessionKey  uuid.UUID
	ConnectedAt time.Time
	Channels    map[string]bool
	Outbound    chan SSEMessage
	done        chan struct{}
	once        sync.Once
	Logger      *logger.Logger
}

// Done is closed once the hub ends the stream.
func (c *SSEClient) Done() <-chan struct{} { return c.done }
