package handler

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"sigillum/internal/http/middleware"
	"sigillum/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_DOC_CODE", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// statusForServiceError maps a typed service error to an HTTP status. The
// validation kind fans out by code because MIME and size problems have
// dedicated statuses.
func statusForServiceError(se *service.Error) int {
	switch se.Kind {
	case service.KindValidation:
		switch se.Code {
		case service.CodeInvalidMIME:
			return fiber.StatusUnsupportedMediaType
		case service.CodeFileTooLarge:
			return fiber.StatusRequestEntityTooLarge
		case service.CodeNoStoredHash:
			return fiber.StatusUnprocessableEntity
		default:
			return fiber.StatusBadRequest
		}
	case service.KindConflict:
		return fiber.StatusConflict
	case service.KindNotFound:
		return fiber.StatusNotFound
	case service.KindUnavailable:
		return fiber.StatusServiceUnavailable
	case service.KindDataIntegrity:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// writeServiceError translates errors returned by the certification service.
// Typed errors carry a safe code and message; anything else becomes a generic
// 500 so internals never leak to the caller.
func writeServiceError(c *fiber.Ctx, err error) error {
	if se, ok := service.AsError(err); ok {
		if se.Kind == service.KindInternal || se.Kind == service.KindDataIntegrity {
			log.Printf(`{"component":"handler","level":"error","request_id":%q,"error":%q}`,
				requestIDFromCtx(c), err.Error())
		}
		return writeError(c, statusForServiceError(se), se.Code, se.Message)
	}
	log.Printf(`{"component":"handler","level":"error","request_id":%q,"error":%q}`,
		requestIDFromCtx(c), err.Error())
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "missing or invalid bearer token")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
