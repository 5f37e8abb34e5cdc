package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"filesearch/flow"
	"filesearch/session"
)

// userMessage maps flow and session errors to the short user-facing
// warnings the UI shows, with an HTTP status. Unknown errors fall through
// as internal failures but never kill the session.
func userMessage(err error) (int, string) {
	switch {
	case errors.Is(err, flow.ErrCredentialRequired):
		return fiber.StatusBadRequest, "❌ Set your API key first."
	case errors.Is(err, flow.ErrStoreRequired):
		return fiber.StatusBadRequest, "⚠️ Create or select a store first."
	case errors.Is(err, flow.ErrNoFile):
		return fiber.StatusBadRequest, "⚠️ Choose a file to upload."
	case errors.Is(err, flow.ErrEmptyQuestion):
		return fiber.StatusBadRequest, "⚠️ Type a question."
	case errors.Is(err, flow.ErrStoreNotFound):
		return fiber.StatusNotFound, "❌ " + err.Error()
	case errors.Is(err, session.ErrNotFound):
		return fiber.StatusNotFound, "❌ Unknown or expired session."
	default:
		return fiber.StatusInternalServerError, "❌ " + err.Error()
	}
}

func fail(c *fiber.Ctx, err error) error {
	status, msg := userMessage(err)
	return c.Status(status).JSON(messageResponse{Message: msg})
}
