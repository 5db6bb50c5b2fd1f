package handlers

import (
	"errors"
	"fmt"

	"plastikhb/internal/services"
	"plastikhb/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// requestError is a malformed request rejected before it reaches a service.
type requestError struct {
	message string
	fields  map[string]string
}

func (e *requestError) Error() string {
	return e.message
}

func badRequest(format string, args ...interface{}) error {
	return &requestError{message: fmt.Sprintf(format, args...)}
}

// validateStruct runs the validator tags of s and reports every failing field.
func validateStruct(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return badRequest("Invalid request body")
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &requestError{message: "Validation failed", fields: errorMessages}
}

// parseBody decodes the request body into dst and validates it.
func parseBody(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		logger.Debug().Err(err).Str("path", c.Path()).Msg("error parsing request body")
		return badRequest("Invalid request body")
	}
	return validateStruct(v, dst)
}

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the fiber.Config ErrorHandler of the API. Every failure leaves as
// {"error": message}, plus "errors" with per-field messages for validation failures.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": "Internal server error"}

	var reqErr *requestError
	var svcErr *services.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &reqErr):
		status = fiber.StatusBadRequest
		body["error"] = reqErr.message
		if len(reqErr.fields) > 0 {
			body["errors"] = reqErr.fields
		}
	case errors.As(err, &svcErr):
		status = statusOf(svcErr.Kind)
		body["error"] = svcErr.Message
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
		body["error"] = fiberErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		logger.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(body)
}
