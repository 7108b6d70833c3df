package controller

import (
	"time"

	"linkchat-be/internal/chat"
	"linkchat-be/internal/dto"
	"linkchat-be/internal/pkg/logger"
	"linkchat-be/internal/pkg/serverutils"
	ws "linkchat-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type ChatController interface {
	RegisterRoutes(api fiber.Router)
}

type chatController struct {
	registry         *chat.Registry
	handshakeTimeout time.Duration
	logger           logger.ILogger
}

func NewChatController(registry *chat.Registry, handshakeTimeout time.Duration, log logger.ILogger) ChatController {
	return &chatController{
		registry:         registry,
		handshakeTimeout: handshakeTimeout,
		logger:           log,
	}
}

func (c *chatController) RegisterRoutes(api fiber.Router) {
	group := api.Group("/chat")
	group.Get("/new", c.NewChat)
	group.Get("/join", c.JoinChat)
	group.Get("/active", c.SetActive)

	group.Use("/ws", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	group.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		ws.ServeConnection(conn, c.registry, c.handshakeTimeout, c.logger)
	}))
}

// NewChat creates an empty room and returns its id. Everything else about
// the room (who is in it, the secret tokens) only exists after joins.
func (c *chatController) NewChat(ctx *fiber.Ctx) error {
	var req dto.NewChatRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.SendError(ctx)
	}

	roomId, err := c.registry.CreateRoom(ctx.Context(), req.ChatName)
	if err != nil {
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, roomId)
}

// JoinChat registers a client-chosen identity in a room and returns the
// secret token it will authenticate with. This is the only place the
// token ever leaves the server.
func (c *chatController) JoinChat(ctx *fiber.Ctx) error {
	var req dto.JoinChatRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.SendError(ctx)
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return serverutils.SendError(ctx)
	}

	session, err := c.registry.ResolveOrOpen(ctx.Context(), req.ChatId)
	if err != nil {
		return serverutils.SendError(ctx)
	}
	token, err := session.AddMember(req.UserId, req.UserName)
	if err != nil {
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, token)
}

// SetActive flips a member's active flag, authenticated by token hash.
func (c *chatController) SetActive(ctx *fiber.Ctx) error {
	var req dto.SetActiveRequest
	if err := ctx.QueryParser(&req); err != nil {
		return serverutils.SendError(ctx)
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return serverutils.SendError(ctx)
	}

	session, err := c.registry.ResolveOrOpen(ctx.Context(), req.ChatId)
	if err != nil {
		return serverutils.SendError(ctx)
	}
	if err := session.SetMemberActive(req.UserId, req.Hash, req.Time, *req.Active); err != nil {
		return serverutils.SendError(ctx)
	}
	return serverutils.SendData(ctx, true)
}
