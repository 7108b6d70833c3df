package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Every JSON endpoint answers with the same envelope:
// { "error": bool, "data": any }
// Successful calls are 200, failed calls 400. No other status codes are
// used by the API surface.

type Envelope struct {
	Error bool        `json:"error"`
	Data  interface{} `json:"data"`
}

func SendData(ctx *fiber.Ctx, data interface{}) error {
	return ctx.Status(fiber.StatusOK).JSON(Envelope{Error: false, Data: data})
}

func SendError(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(Envelope{Error: true, Data: nil})
}

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a bound request DTO.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

// ErrorHandlerMiddleware converts any error escaping a handler into the
// uniform envelope, so callers never see fiber's default error page.
// Explicit fiber errors keep their status code; the byte-serving routes
// use them for their 404s and upgrade checks.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(Envelope{Error: true, Data: nil})
		}
		return SendError(ctx)
	}
}
