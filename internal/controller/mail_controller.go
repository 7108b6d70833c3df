package controller

import (
	"linkchat-be/internal/dto"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/serverutils"
	"linkchat-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type MailController interface {
	RegisterRoutes(api fiber.Router)
}

type mailController struct {
	unsubscribe contract.UnsubscribeStore
	logger      logger.ILogger
}

func NewMailController(unsubscribe contract.UnsubscribeStore, log logger.ILogger) MailController {
	return &mailController{
		unsubscribe: unsubscribe,
		logger:      log,
	}
}

func (c *mailController) RegisterRoutes(api fiber.Router) {
	group := api.Group("/mail")
	group.Get("/unsubscribe", c.Unsubscribe)
	group.Get("/resubscribe", c.Resubscribe)
	group.Get("/isunsubscribed", c.IsUnsubscribed)
}

// Unsubscribe opts an address out of mention mails. The endpoint is a GET
// so the link in a notification mail works from any client.
func (c *mailController) Unsubscribe(ctx *fiber.Ctx) error {
	address, ok := c.parseAddress(ctx)
	if !ok {
		return serverutils.SendError(ctx)
	}
	if err := c.unsubscribe.Unsubscribe(ctx.Context(), address); err != nil {
		c.logger.Error("MailController", "Failed to unsubscribe address", map[string]interface{}{"error": err})
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, true)
}

func (c *mailController) Resubscribe(ctx *fiber.Ctx) error {
	address, ok := c.parseAddress(ctx)
	if !ok {
		return serverutils.SendError(ctx)
	}
	if err := c.unsubscribe.Resubscribe(ctx.Context(), address); err != nil {
		c.logger.Error("MailController", "Failed to resubscribe address", map[string]interface{}{"error": err})
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, true)
}

func (c *mailController) IsUnsubscribed(ctx *fiber.Ctx) error {
	address, ok := c.parseAddress(ctx)
	if !ok {
		return serverutils.SendError(ctx)
	}
	unsubscribed, err := c.unsubscribe.IsUnsubscribed(ctx.Context(), address)
	if err != nil {
		c.logger.Error("MailController", "Failed to check address", map[string]interface{}{"error": err})
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, unsubscribed)
}

func (c *mailController) parseAddress(ctx *fiber.Ctx) (string, bool) {
	var req dto.MailAddressRequest
	if err := ctx.QueryParser(&req); err != nil {
		return "", false
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return "", false
	}
	return req.Address, true
}
