package controller

import (
	"errors"
	"io"

	"clinical-scribe-be/internal/dto"
	"clinical-scribe-be/internal/pkg/serverutils"
	"clinical-scribe-be/internal/service"
	"clinical-scribe-be/pkg/batch"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IBatchController interface {
	RegisterRoutes(r fiber.Router)
	State(ctx *fiber.Ctx) error
	AddGroup(ctx *fiber.Ctx) error
	RemoveGroup(ctx *fiber.Ctx) error
	SetDocumentType(ctx *fiber.Ctx) error
	SetHints(ctx *fiber.Ctx) error
	AttachFiles(ctx *fiber.Ctx) error
	DetachFile(ctx *fiber.Ctx) error
	AddSession(ctx *fiber.Ctx) error
	AttachSessionFiles(ctx *fiber.Ctx) error
	SetSessionDate(ctx *fiber.Ctx) error
	RemoveSession(ctx *fiber.Ctx) error
	Run(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type batchController struct {
	batchService service.IBatchService
}

func NewBatchController(batchService service.IBatchService) IBatchController {
	return &batchController{batchService: batchService}
}

func (c *batchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/batch/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.State)
	h.Delete("", c.Clear)
	h.Post("/run", c.Run)
	h.Post("/stop", c.Stop)
	h.Post("/group", c.AddGroup)
	h.Delete("/group/:groupId", c.RemoveGroup)
	h.Put("/group/:groupId/document-type", c.SetDocumentType)
	h.Put("/group/:groupId/hints", c.SetHints)
	h.Post("/group/:groupId/files", c.AttachFiles)
	h.Delete("/group/:groupId/files/:fileId", c.DetachFile)
	h.Post("/group/:groupId/sessions", c.AddSession)
	h.Post("/group/:groupId/sessions/:sessionId/files", c.AttachSessionFiles)
	h.Put("/group/:groupId/sessions/:sessionId/date", c.SetSessionDate)
	h.Delete("/group/:groupId/sessions/:sessionId", c.RemoveSession)
}

// mapBatchErr translates service-level batch errors into API errors so a
// running batch surfaces as 409 instead of a generic 500.
func mapBatchErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrBatchRunning) {
		return serverutils.NewApiError(fiber.StatusConflict, err.Error())
	}
	return err
}

// collectUploadedFiles reads every part of the "files" multipart field into
// memory. Uploads are capped by the server body limit before reaching here.
func collectUploadedFiles(ctx *fiber.Ctx) ([]batch.UploadedFile, error) {
	form, err := ctx.MultipartForm()
	if err != nil {
		return nil, serverutils.NewApiError(fiber.StatusBadRequest, "expected multipart form upload")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, serverutils.NewApiError(fiber.StatusBadRequest, "no files provided in 'files' field")
	}

	files := make([]batch.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, err
		}
		files = append(files, batch.UploadedFile{
			FileName: fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}
	return files, nil
}

func (c *batchController) State(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.batchService.State(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get batch state", res))
}

func (c *batchController) AddGroup(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.AddGroupRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.batchService.AddGroup(ctx.Context(), userId, &req)
	if err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add group", res))
}

func (c *batchController) RemoveGroup(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))

	if err := c.batchService.RemoveGroup(ctx.Context(), userId, groupId); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success remove group", nil))
}

func (c *batchController) SetDocumentType(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))

	var req dto.SetDocumentTypeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.GroupId = groupId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.batchService.SetDocumentType(ctx.Context(), userId, &req); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set document type", nil))
}

func (c *batchController) SetHints(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))

	var req dto.SetHintsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.GroupId = groupId

	if err := c.batchService.SetHints(ctx.Context(), userId, &req); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set hints", nil))
}

func (c *batchController) AttachFiles(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))

	files, err := collectUploadedFiles(ctx)
	if err != nil {
		return err
	}

	if err := c.batchService.AttachFiles(ctx.Context(), userId, groupId, files); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success attach files", nil))
}

func (c *batchController) DetachFile(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))
	fileId, _ := uuid.Parse(ctx.Params("fileId"))

	if err := c.batchService.DetachFile(ctx.Context(), userId, groupId, fileId); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success detach file", nil))
}

func (c *batchController) AddSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))

	// Date is optional at creation time; it can be set later.
	var body struct {
		Date string `json:"date"`
	}
	_ = ctx.BodyParser(&body)

	res, err := c.batchService.AddSession(ctx.Context(), userId, groupId, body.Date)
	if err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success add session", res))
}

func (c *batchController) AttachSessionFiles(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))
	sessionId, _ := uuid.Parse(ctx.Params("sessionId"))

	files, err := collectUploadedFiles(ctx)
	if err != nil {
		return err
	}

	if err := c.batchService.AttachSessionFiles(ctx.Context(), userId, groupId, sessionId, files); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success attach session files", nil))
}

func (c *batchController) SetSessionDate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))
	sessionId, _ := uuid.Parse(ctx.Params("sessionId"))

	var req dto.SetSessionDateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.GroupId = groupId
	req.SessionId = sessionId

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.batchService.SetSessionDate(ctx.Context(), userId, &req); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success set session date", nil))
}

func (c *batchController) RemoveSession(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	groupId, _ := uuid.Parse(ctx.Params("groupId"))
	sessionId, _ := uuid.Parse(ctx.Params("sessionId"))

	if err := c.batchService.RemoveSession(ctx.Context(), userId, groupId, sessionId); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success remove session", nil))
}

func (c *batchController) Run(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.batchService.Run(ctx.Context(), userId)
	if err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Batch run started", res))
}

func (c *batchController) Stop(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.batchService.Stop(ctx.Context(), userId); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Stop requested, current document will finish", nil))
}

func (c *batchController) Clear(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	if err := c.batchService.Clear(ctx.Context(), userId); err != nil {
		return mapBatchErr(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success clear batch", nil))
}
