// Package gateway orchestrates the request admission pipeline:
// authenticate the bearer credential, authorize the operation, admit it
// against minute and day quotas, invoke the downstream handler, and
// record a usage event for every terminal outcome after authentication.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/limits"
	"github.com/mockgate/mockgate/internal/observability"
	"github.com/mockgate/mockgate/internal/permissions"
	"github.com/mockgate/mockgate/internal/requestctx"
	"github.com/mockgate/mockgate/internal/usage"
)

// Request describes one inbound API call to be admitted.
type Request struct {
	Token     string
	Operation credentials.Operation
	Model     string
	ClientIP  string
	UserAgent string
}

// Result is what an admitted downstream handler produced. The gateway
// returns Body to the caller unmodified.
type Result struct {
	StatusCode int
	Body       any
	Model      string
	TokensIn   int
	TokensOut  int
}

// Handler is the downstream operation executed once a request is admitted.
type Handler func(ctx context.Context, cred *credentials.Credential) (Result, error)

// Gateway wires the credential store, admission counter, and usage
// recorder around downstream handlers.
type Gateway struct {
	store    credentials.Store
	counter  *limits.WindowCounter
	recorder *usage.Recorder
	metrics  *observability.Provider
	logger   *slog.Logger
	now      func() time.Time
}

func New(store credentials.Store, counter *limits.WindowCounter, recorder *usage.Recorder, metrics *observability.Provider, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		store:    store,
		counter:  counter,
		recorder: recorder,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate resolves the token and checks the credential is usable.
// Usability is evaluated fresh on every call, never cached.
func (g *Gateway) Authenticate(ctx context.Context, token string) (*credentials.Credential, error) {
	cred, err := g.store.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	if !cred.Usable(g.now().UTC()) {
		return nil, ErrCredentialUnusable
	}
	return cred, nil
}

// Authorize checks the credential's capability flags for the operation.
func (g *Gateway) Authorize(cred *credentials.Credential, op credentials.Operation) error {
	if !permissions.Check(cred, op) {
		return ErrCapabilityDenied
	}
	return nil
}

// Admit counts the request against the credential's minute and day
// windows. A counter backend failure denies the request: silently
// admitting would void the quota guarantee.
func (g *Gateway) Admit(ctx context.Context, cred *credentials.Credential) error {
	decision, err := g.counter.Admit(ctx, cred.ID, limits.Limits{
		PerMinute: cred.RateLimitPerMinute,
		PerDay:    cred.RateLimitPerDay,
	})
	if err != nil {
		g.logger.Error("admission counter unreachable, denying request",
			"credential_id", cred.ID, "error", err)
		return &QuotaExceededError{Unavailable: true}
	}
	if !decision.Admitted {
		return &QuotaExceededError{
			Granularity: decision.Granularity,
			RetryAfter:  decision.RetryAfter,
		}
	}
	return nil
}

// Process runs the full pipeline around the downstream handler. Every
// terminal outcome after successful authentication records exactly one
// usage event; an unauthenticated request has no credential to attribute
// usage to and is not metered.
func (g *Gateway) Process(ctx context.Context, req Request, h Handler) (Result, error) {
	start := g.now()

	cred, err := g.Authenticate(ctx, req.Token)
	if err != nil {
		g.observe(req.Operation, "rejected_authenticate")
		return Result{}, err
	}

	requestID := usage.NewRequestID()
	ctx = requestctx.WithContext(ctx, &requestctx.Context{
		Credential: cred,
		RequestID:  requestID,
	})

	record := func(status int, model string, tokensIn, tokensOut int, errMsg string) {
		g.recorder.Record(ctx, usage.Event{
			RequestID:      requestID,
			CredentialID:   cred.ID,
			Operation:      req.Operation,
			Model:          model,
			TokensIn:       tokensIn,
			TokensOut:      tokensOut,
			StatusCode:     status,
			ErrorMessage:   errMsg,
			ResponseTimeMs: g.now().Sub(start).Milliseconds(),
			ClientIP:       req.ClientIP,
			UserAgent:      req.UserAgent,
		})
	}

	if err := g.Authorize(cred, req.Operation); err != nil {
		g.observe(req.Operation, "rejected_authorize")
		record(http.StatusForbidden, req.Model, 0, 0, err.Error())
		return Result{}, err
	}

	if err := g.Admit(ctx, cred); err != nil {
		g.observe(req.Operation, "rejected_admit")
		record(http.StatusTooManyRequests, req.Model, 0, 0, err.Error())
		return Result{}, err
	}

	res, err := g.invoke(ctx, cred, h)
	if err != nil {
		var derr *DownstreamError
		if !errors.As(err, &derr) {
			derr = &DownstreamError{Err: err}
		}
		g.observe(req.Operation, "failed_downstream")
		record(http.StatusInternalServerError, req.Model, 0, 0, derr.Error())
		return Result{}, derr
	}

	if res.StatusCode == 0 {
		res.StatusCode = http.StatusOK
	}
	model := res.Model
	if model == "" {
		model = req.Model
	}
	g.observe(req.Operation, "completed")
	g.metrics.RecordTokens(model, int64(res.TokensIn), int64(res.TokensOut))
	record(res.StatusCode, model, res.TokensIn, res.TokensOut, "")
	return res, nil
}

// invoke shields the gateway from downstream panics: any failure mode
// becomes a DownstreamError usage event instead of propagating uncaught.
func (g *Gateway) invoke(ctx context.Context, cred *credentials.Credential, h Handler) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("downstream handler panicked", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, cred)
}

func (g *Gateway) observe(op credentials.Operation, outcome string) {
	g.metrics.RecordDecision(string(op), outcome)
}
