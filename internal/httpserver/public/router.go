// Package public serves the authenticated /v1 API surface.
package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mockgate/mockgate/internal/app"
)

// Register wires up the OpenAI-shaped public API routes.
func Register(fa *fiber.App, container *app.Container) {
	group := fa.Group("/v1", requireBearer())
	handler := &apiHandler{container: container}
	group.Post("/chat/completions", handler.chatCompletions)
	group.Post("/embeddings", handler.embeddings)
	group.Post("/moderations", handler.moderations)
	group.Post("/images/generations", handler.imageGenerations)
	group.Get("/models", handler.listModels)
	group.Get("/models/:id", handler.getModel)
}
