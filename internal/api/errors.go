package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/log"
	"github.com/andresmejia3/maskwatch/internal/monitor"
	"github.com/andresmejia3/maskwatch/internal/store"
)

// Error carries an HTTP status alongside the cause.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(code int, msg string) error {
	return &Error{Code: code, Err: errors.New(msg)}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ErrorHandler struct{}

func NewErrorHandler() *ErrorHandler { return &ErrorHandler{} }

// Handle maps err onto a status code and JSON body.
func (h *ErrorHandler) Handle(c *fiber.Ctx, err error, operation string) error {
	fields := log.Fields{
		"request_id": GetRequestID(c),
		"error":      err.Error(),
		"path":       c.Path(),
		"operation":  operation,
	}

	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		log.Warn(fields, "Operation failed with error response")
		return c.Status(apiErr.Code).JSON(ErrorResponse{Error: err.Error()})

	case errors.Is(err, geo.ErrZoneExists):
		log.Warn(fields, "Zone already exists")
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error(), Code: "ZONE_EXISTS"})

	case errors.Is(err, geo.ErrZoneNotFound), errors.Is(err, store.ErrZoneNotFound):
		log.Warn(fields, "Zone not found")
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error(), Code: "ZONE_NOT_FOUND"})

	case errors.Is(err, geo.ErrInvalidCoordinate):
		log.Warn(fields, "Invalid coordinate")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Code: "INVALID_COORDINATE"})

	case errors.Is(err, monitor.ErrStopped):
		log.Warn(fields, "Monitor is not running")
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: err.Error(), Code: "MONITOR_STOPPED"})
	}

	log.Error(fields, "Unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "An unexpected error occurred"})
}

func (h *ErrorHandler) HandleValidationError(c *fiber.Ctx, err error) error {
	log.Warn(log.Fields{
		"request_id": GetRequestID(c),
		"error":      err.Error(),
		"path":       c.Path(),
	}, "Validation failed")

	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: "Validation failed: " + err.Error(),
		Code:  "VALIDATION_ERROR",
	})
}
