package credentials

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the informational pricing tier attached to a credential. The
// numeric limits stored on the credential itself are what enforcement uses.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// Status is the lifecycle state of a credential.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusExpired   Status = "expired"
)

// Operation identifies a protected operation kind a credential may invoke.
type Operation string

const (
	OperationChat        Operation = "chat_completions"
	OperationEmbeddings  Operation = "embeddings"
	OperationModerations Operation = "moderations"
	OperationImages      Operation = "images_generations"
)

// Credential is an issued API key together with its policy: capability
// flags, rate limits, status, and running usage totals.
type Credential struct {
	ID      uuid.UUID
	Token   string
	Name    string
	OwnerID string
	Plan    Plan
	Status  Status

	CanChat        bool
	CanEmbeddings  bool
	CanModerations bool
	CanImages      bool

	RateLimitPerMinute int
	RateLimitPerDay    int

	ExpiresAt *time.Time

	TotalRequests int64
	TotalTokens   int64
	LastUsedAt    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Usable reports whether the credential may authenticate at the given
// instant: status must be active and any expiry must be in the future.
// This is evaluated fresh on every request and never cached.
func (c *Credential) Usable(now time.Time) bool {
	if c == nil || c.Status != StatusActive {
		return false
	}
	if c.ExpiresAt != nil && !c.ExpiresAt.After(now) {
		return false
	}
	return true
}

// PlanDefaults returns the default per-minute and per-day request limits
// for a plan tier, applied when a credential is issued without overrides.
func PlanDefaults(plan Plan) (perMinute, perDay int) {
	switch plan {
	case PlanBasic:
		return 60, 10_000
	case PlanPremium:
		return 300, 100_000
	case PlanEnterprise:
		return 1_000, 1_000_000
	default:
		return 10, 1_000
	}
}
