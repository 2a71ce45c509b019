package public

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mockgate/mockgate/internal/app"
	"github.com/mockgate/mockgate/internal/credentials"
	"github.com/mockgate/mockgate/internal/gateway"
	"github.com/mockgate/mockgate/internal/httpserver/httputil"
	"github.com/mockgate/mockgate/internal/mockai"
)

type apiHandler struct {
	container *app.Container
}

func (h *apiHandler) chatCompletions(c *fiber.Ctx) error {
	var req mockai.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if len(req.Messages) == 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "messages is required")
	}

	return h.process(c, credentials.OperationChat, req.Model,
		func(ctx context.Context, cred *credentials.Credential) (gateway.Result, error) {
			res := h.container.Generator.ChatCompletion(req)
			return gateway.Result{
				Body:      res,
				Model:     res.Model,
				TokensIn:  res.Usage.PromptTokens,
				TokensOut: res.Usage.CompletionTokens,
			}, nil
		})
}

func (h *apiHandler) embeddings(c *fiber.Ctx) error {
	var req mockai.EmbeddingsRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if len(req.Input) == 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "input is required")
	}

	return h.process(c, credentials.OperationEmbeddings, req.Model,
		func(ctx context.Context, cred *credentials.Credential) (gateway.Result, error) {
			res := h.container.Generator.Embeddings(req)
			return gateway.Result{
				Body:     res,
				Model:    res.Model,
				TokensIn: res.Usage.PromptTokens,
			}, nil
		})
}

func (h *apiHandler) moderations(c *fiber.Ctx) error {
	var req mockai.ModerationRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if len(req.Input) == 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "input is required")
	}

	return h.process(c, credentials.OperationModerations, req.Model,
		func(ctx context.Context, cred *credentials.Credential) (gateway.Result, error) {
			res := h.container.Generator.Moderation(req)
			return gateway.Result{Body: res, Model: res.Model}, nil
		})
}

func (h *apiHandler) imageGenerations(c *fiber.Ctx) error {
	var req mockai.ImageRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "malformed request body")
	}
	if req.Prompt == "" {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid_request", "prompt is required")
	}

	return h.process(c, credentials.OperationImages, req.Model,
		func(ctx context.Context, cred *credentials.Credential) (gateway.Result, error) {
			res := h.container.Generator.Images(req)
			return gateway.Result{Body: res, Model: req.Model}, nil
		})
}

// listModels serves the catalog to any usable credential. Catalog reads
// are not metered or rate limited.
func (h *apiHandler) listModels(c *fiber.Ctx) error {
	if err := h.authenticateOnly(c); err != nil {
		return writeGatewayError(c, err)
	}
	return c.JSON(mockai.Models())
}

func (h *apiHandler) getModel(c *fiber.Ctx) error {
	if err := h.authenticateOnly(c); err != nil {
		return writeGatewayError(c, err)
	}
	model, ok := mockai.FindModel(c.Params("id"))
	if !ok {
		return httputil.WriteError(c, fiber.StatusNotFound, "model_not_found", "model does not exist")
	}
	return c.JSON(model)
}

func (h *apiHandler) authenticateOnly(c *fiber.Ctx) error {
	_, err := h.container.Gateway.Authenticate(c.UserContext(), bearerToken(c))
	return err
}

func (h *apiHandler) process(c *fiber.Ctx, op credentials.Operation, model string, handler gateway.Handler) error {
	res, err := h.container.Gateway.Process(c.UserContext(), gateway.Request{
		Token:     bearerToken(c),
		Operation: op,
		Model:     model,
		ClientIP:  clientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}, handler)
	if err != nil {
		return writeGatewayError(c, err)
	}
	return c.Status(res.StatusCode).JSON(res.Body)
}

// writeGatewayError maps pipeline errors to wire responses. Rate limit
// rejections carry a Retry-After header; a denial caused by limiter
// unavailability does not, since no useful retry hint exists.
func writeGatewayError(c *fiber.Ctx, err error) error {
	var quota *gateway.QuotaExceededError
	if errors.As(err, &quota) && !quota.Unavailable {
		seconds := int64(math.Ceil(quota.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(seconds, 10))
	}

	code := gateway.ReasonCode(err)
	status := fiber.StatusInternalServerError
	switch code {
	case gateway.ReasonInvalidCredential, gateway.ReasonCredentialDisabled:
		status = fiber.StatusUnauthorized
	case gateway.ReasonCapabilityDenied:
		status = fiber.StatusForbidden
	case gateway.ReasonRateLimited, gateway.ReasonLimiterUnavailable:
		status = fiber.StatusTooManyRequests
	}
	return httputil.WriteError(c, status, code, err.Error())
}
