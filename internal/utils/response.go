package utils

import (
	"log"

	apperrors "hydrofund/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status           string            `json:"status"`
	Data             interface{}       `json:"data,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	Message          string            `json:"message,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	AlreadyProcessed bool              `json:"already_processed,omitempty"`
}

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, body Envelope) error {
	return c.Status(status).JSON(body)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, Envelope{Status: "success", Data: data})
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, Envelope{Status: "success", Data: data})
}

// Fail sends an error envelope that does not come from a domain error.
func Fail(c *fiber.Ctx, status int, reason, message string) error {
	return Respond(c, status, Envelope{Status: "error", Reason: reason, Message: message})
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Fail(c, fiber.StatusBadRequest, "INVALID_REQUEST", message)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	de, ok := apperrors.As(err)
	if !ok {
		return fiber.StatusInternalServerError
	}
	switch de.Kind {
	case apperrors.KindValidation:
		if de.Details != nil {
			return fiber.StatusUnprocessableEntity
		}
		return fiber.StatusBadRequest
	case apperrors.KindInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindNotFound:
		return fiber.StatusNotFound
	case apperrors.KindForbidden:
		return fiber.StatusForbidden
	case apperrors.KindStateConflict:
		if de.AlreadyProcessed {
			return fiber.StatusOK
		}
		return fiber.StatusConflict
	case apperrors.KindTransient:
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// RespondError writes err as an error envelope. Foreign errors are logged and
// hidden behind a generic message.
func RespondError(c *fiber.Ctx, err error) error {
	de, ok := apperrors.As(err)
	if !ok {
		log.Printf("%s %s: unexpected error: %v", c.Method(), c.Path(), err)
		return Fail(c, fiber.StatusInternalServerError, "INTERNAL", "internal server error")
	}
	if de.Kind == apperrors.KindTransient {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return Respond(c, StatusFor(err), Envelope{
		Status:  "error",
		Reason:  de.Code,
		Message: de.Message,
		Details: de.Details,
	})
}

// RespondResult answers an idempotent command. A success-equivalent conflict
// is reported as success with already_processed set and the record attached.
func RespondResult(c *fiber.Ctx, data interface{}, err error) error {
	if err == nil {
		return Success(c, data)
	}
	if apperrors.IsAlreadyProcessed(err) {
		de, _ := apperrors.As(err)
		return Respond(c, fiber.StatusOK, Envelope{
			Status:           "success",
			Data:             data,
			Reason:           de.Code,
			Message:          de.Message,
			AlreadyProcessed: true,
		})
	}
	return RespondError(c, err)
}
