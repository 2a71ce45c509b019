package requestctx

import (
	"context"

	"github.com/mockgate/mockgate/internal/credentials"
)

type contextKey string

// Key is the typed context key used for storing the request context.
var Key contextKey = "mockgate/requestctx"

// Context carries the identity resolved for one authenticated request.
type Context struct {
	Credential *credentials.Credential
	RequestID  string
}

// WithContext embeds the request context into the parent context.
func WithContext(parent context.Context, rc *Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, Key, rc)
}

// FromContext retrieves the request context if present.
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	rc, ok := ctx.Value(Key).(*Context)
	return rc, ok
}
