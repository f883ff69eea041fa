package serverutils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks struct tags on a request DTO. The returned
// validator.ValidationErrors is rendered by ErrorHandlerMiddleware.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
