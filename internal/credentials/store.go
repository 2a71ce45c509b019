package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Lookup when no credential matches the token.
var ErrNotFound = errors.New("credential not found")

// Store is the contract the gateway requires from credential persistence.
//
// AddUsage must be atomic under arbitrary concurrent callers for the same
// credential: no increment may be lost. TouchLastUsed is best-effort; a
// failure to persist it must never fail the request.
type Store interface {
	Lookup(ctx context.Context, token string) (*Credential, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Credential, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID, ts time.Time) error
	AddUsage(ctx context.Context, id uuid.UUID, tokens int64) error
}
