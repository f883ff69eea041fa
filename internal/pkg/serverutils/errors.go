package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// ApiError is a service-level error carrying the HTTP status it should be
// rendered with.
type ApiError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(code int, message string) *ApiError {
	return &ApiError{Code: code, Message: message}
}

// ErrorHandlerMiddleware converts errors returned by handlers into JSON
// responses. Services return plain errors; only the mapping lives here.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var apiErr *ApiError
		if errors.As(err, &apiErr) {
			return ctx.Status(apiErr.Code).JSON(Response{
				Success: false,
				Message: apiErr.Message,
			})
		}

		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			fields := make(map[string]string, len(valErrs))
			for _, fe := range valErrs {
				fields[fe.Field()] = fe.Tag()
			}
			return ctx.Status(fiber.StatusBadRequest).JSON(Response{
				Success: false,
				Message: "Validation failed",
				Data:    fields,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(Response{
				Success: false,
				Message: fiberErr.Message,
			})
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(Response{
				Success: false,
				Message: "Record not found",
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(Response{
			Success: false,
			Message: "Internal server error",
		})
	}
}
