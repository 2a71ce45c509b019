package public

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mockgate/mockgate/internal/httpserver/httputil"
)

const (
	authBearerPrefix = "bearer "
	bearerTokenKey   = "bearer_token"
)

// requireBearer extracts the bearer token from the Authorization header.
// A missing or malformed header is reported distinctly from an invalid
// token, which only the credential store can decide.
func requireBearer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return httputil.WriteError(c, fiber.StatusUnauthorized,
				"missing_authorization", "authorization header required")
		}
		if !strings.HasPrefix(strings.ToLower(raw), authBearerPrefix) {
			return httputil.WriteError(c, fiber.StatusUnauthorized,
				"missing_authorization", "bearer token required")
		}
		token := strings.TrimSpace(raw[len(authBearerPrefix):])
		if token == "" {
			return httputil.WriteError(c, fiber.StatusUnauthorized,
				"missing_authorization", "bearer token required")
		}
		c.Locals(bearerTokenKey, token)
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	token, _ := c.Locals(bearerTokenKey).(string)
	return token
}

// clientIP prefers the first X-Forwarded-For hop over the socket peer.
func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	return c.IP()
}
