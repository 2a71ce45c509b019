package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mockgate/mockgate/internal/credentials"
)

// Recorder appends usage events and folds them into the owning
// credential's running totals. Recording is best-effort telemetry: every
// failure here is logged and swallowed so the response returned to the
// caller is never changed by a bookkeeping problem.
type Recorder struct {
	sink    Sink
	store   credentials.Store
	logger  *slog.Logger
	timeout time.Duration
}

func NewRecorder(sink Sink, store credentials.Store, logger *slog.Logger, timeout time.Duration) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{sink: sink, store: store, logger: logger, timeout: timeout}
}

// Record persists the event and updates credential totals. It detaches
// from the caller's cancellation: a client that hangs up after admission
// already consumed quota, so its usage still gets written.
func (r *Recorder) Record(ctx context.Context, ev Event) {
	if r == nil || r.sink == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	ev.TotalTokens = ev.TokensIn + ev.TokensOut

	appended, err := r.sink.Append(ctx, ev)
	if err != nil {
		r.logger.Error("usage event append failed",
			"request_id", ev.RequestID,
			"credential_id", ev.CredentialID,
			"error", err)
		return
	}
	if !appended {
		// Replay of an already-recorded request instance; totals were
		// folded the first time.
		return
	}

	if err := r.store.AddUsage(ctx, ev.CredentialID, int64(ev.TotalTokens)); err != nil {
		r.logger.Error("credential usage totals update failed",
			"credential_id", ev.CredentialID,
			"error", err)
	}
	if err := r.store.TouchLastUsed(ctx, ev.CredentialID, ev.CreatedAt); err != nil {
		r.logger.Warn("credential last-used update failed",
			"credential_id", ev.CredentialID,
			"error", err)
	}
}
