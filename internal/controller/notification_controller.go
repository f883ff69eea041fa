package controller

import (
	"os"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/entity"
	"clinical-scribe-be/internal/pkg/logger"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"
	internalWS "clinical-scribe-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type INotificationController interface {
	RegisterRoutes(r fiber.Router)
	ServeWs(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	UnreadCount(ctx *fiber.Ctx) error
	MarkRead(ctx *fiber.Ctx) error
	MarkAllRead(ctx *fiber.Ctx) error
}

type notificationController struct {
	notificationService service.INotificationService
	hub                 *internalWS.Hub
	logger              logger.ILogger
}

func NewNotificationController(notificationService service.INotificationService, hub *internalWS.Hub, log logger.ILogger) INotificationController {
	return &notificationController{
		notificationService: notificationService,
		hub:                 hub,
		logger:              log,
	}
}

func (c *notificationController) RegisterRoutes(r fiber.Router) {
	// The websocket handshake authenticates itself from the token query
	// param, so it sits outside the JWT middleware group.
	r.Get("/ws", c.ServeWs)

	h := r.Group("/notification/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.List)
	h.Get("/unread-count", c.UnreadCount)
	h.Put(":id/read", c.MarkRead)
	h.Put("/read-all", c.MarkAllRead)
}

// ServeWs authenticates the websocket handshake and hands the connection to
// the hub. Browsers cannot set headers on websocket requests, so the token
// is accepted from the "token" query param first.
func (c *notificationController) ServeWs(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Missing token (query 'token' or Authorization header)")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		c.logger.Warn("NotificationController", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Invalid token claims")
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != "access" {
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Invalid token type")
	}

	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Token missing user_id")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return serverutils.NewApiError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(c.hub, conn, userId)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

func (c *notificationController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.ListNotificationsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	items, total, err := c.notificationService.List(ctx.Context(), userId, req.Limit, req.Offset, req.UnreadOnly)
	if err != nil {
		return err
	}

	responses := make([]*dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		responses = append(responses, notificationToResponse(n))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list notifications", fiber.Map{
		"items": responses,
		"total": total,
	}))
}

func (c *notificationController) UnreadCount(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	count, err := c.notificationService.UnreadCount(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get unread count", fiber.Map{"count": count}))
}

func (c *notificationController) MarkRead(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	id, _ := uuid.Parse(ctx.Params("id"))

	if err := c.notificationService.MarkRead(ctx.Context(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Notification marked as read", nil))
}

func (c *notificationController) MarkAllRead(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.notificationService.MarkAllRead(ctx.Context(), userId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("All notifications marked as read", nil))
}

func notificationToResponse(n *entity.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		Id:        n.Id,
		TypeCode:  n.TypeCode,
		Title:     n.Title,
		Message:   n.Message,
		Metadata:  n.Metadata,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
