package usage

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mockgate/mockgate/internal/credentials"
)

// Event is an immutable record of one processed request: what was asked,
// what it consumed, and how it ended. Exactly one event exists per
// request that reached the gateway's terminal step, rejections and
// failures included.
type Event struct {
	ID             uuid.UUID
	RequestID      string
	CredentialID   uuid.UUID
	Operation      credentials.Operation
	Model          string
	TokensIn       int
	TokensOut      int
	TotalTokens    int
	StatusCode     int
	ErrorMessage   string
	ResponseTimeMs int64
	ClientIP       string
	UserAgent      string
	CreatedAt      time.Time
}

// NewRequestID returns a fresh request identifier in the req_<hex> shape.
func NewRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
