package controller

import (
	"linkchat-be/internal/entity"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/randstring"
	"linkchat-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type FileController interface {
	RegisterRoutes(api fiber.Router)
}

type fileController struct {
	store  contract.ChatStore
	files  contract.AttachmentStore
	logger logger.ILogger
}

func NewFileController(store contract.ChatStore, files contract.AttachmentStore, log logger.ILogger) FileController {
	return &fileController{
		store:  store,
		files:  files,
		logger: log,
	}
}

func (c *fileController) RegisterRoutes(api fiber.Router) {
	api.Get("/file/:chatId/:messageId", c.Download)
}

// Download streams a finalized attachment. Images render inline, anything
// else downloads under its original name. Knowing both ids is the access
// control, same as knowing the chat link itself.
func (c *fileController) Download(ctx *fiber.Ctx) error {
	chatId := ctx.Params("chatId")
	messageId := ctx.Params("messageId")
	if !randstring.IsValid(chatId, randstring.RoomIDLength) || !randstring.IsValid(messageId, randstring.MessageIDLength) {
		return fiber.ErrNotFound
	}

	msg, err := c.store.GetMessage(ctx.Context(), chatId, messageId)
	if err != nil {
		c.logger.Error("FileController", "Failed to load attachment message", map[string]interface{}{"room_id": chatId, "message_id": messageId, "error": err})
		return fiber.ErrNotFound
	}
	if msg == nil || !msg.HasAttachment() {
		return fiber.ErrNotFound
	}

	var meta *entity.FileMeta
	var disposition string
	if msg.Image != nil {
		meta = msg.Image
		disposition = "inline"
	} else {
		meta = msg.File
		disposition = `attachment; filename="` + meta.Name + `"`
	}

	reader, err := c.files.Open(chatId, messageId)
	if err != nil {
		return fiber.ErrNotFound
	}

	ctx.Set(fiber.HeaderContentType, meta.Type)
	ctx.Set(fiber.HeaderContentDisposition, disposition)
	return ctx.SendStream(reader)
}
