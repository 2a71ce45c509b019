// Package ops serves the operator endpoints for credential inspection.
package ops

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mockgate/mockgate/internal/app"
	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/httpserver/httputil"
	"github.com/mockgate/mockgate/internal/timeutil"
)

// Register wires up the /ops routes.
func Register(fa *fiber.App, container *app.Container) {
	handler := &opsHandler{container: container}
	group := fa.Group("/ops")
	group.Get("/credentials/:id/usage", handler.credentialUsage)
}

type opsHandler struct {
	container *app.Container
}

// credentialUsage aggregates a credential's usage events over a rolling
// window, default the last 24 hours.
func (h *opsHandler) credentialUsage(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_credential_id", "credential id must be a uuid")
	}

	window, err := timeutil.NewWindow(c.Query("window", "24h"), time.Now())
	if err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_window", "window must look like 24h, 7d, or 30m")
	}

	if _, err := h.container.Credentials.GetByID(c.UserContext(), id); err != nil {
		if errors.Is(err, credentials.ErrNotFound) {
			return httputil.WriteError(c, fiber.StatusNotFound, "credential_not_found", "no such credential")
		}
		return httputil.WriteError(c, fiber.StatusInternalServerError, "internal_error", "credential lookup failed")
	}

	summary, err := h.container.UsageService.CredentialSummary(c.UserContext(), id, window)
	if err != nil {
		return httputil.WriteError(c, fiber.StatusInternalServerError, "internal_error", "usage aggregation failed")
	}
	return c.JSON(summary)
}
