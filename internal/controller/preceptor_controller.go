package controller

import (
	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPreceptorController interface {
	RegisterRoutes(r fiber.Router)
	Review(ctx *fiber.Ctx) error
}

type preceptorController struct {
	preceptorService service.IPreceptorService
}

func NewPreceptorController(preceptorService service.IPreceptorService) IPreceptorController {
	return &preceptorController{preceptorService: preceptorService}
}

func (c *preceptorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/preceptor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/review", c.Review)
}

// Review generates the multi-perspective review bundle synchronously. The
// client should expect this call to take as long as four model round trips.
func (c *preceptorController) Review(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.PreceptorReviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.preceptorService.Review(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success generate preceptor review", res))
}
