// Package response renders every API reply in the same {status, message, data}
// envelope, errors included.
package response

import "github.com/gofiber/fiber/v3"

type SemanticResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageCreated             = "created"
	MessageBadRequest          = "bad request"
	MessageUnauthorized        = "unauthorized"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageConflict            = "conflict"
	MessageUnprocessableEntity = "unprocessable entity"
	MessagePayloadTooLarge     = "payload too large"
	MessageServiceUnavailable  = "service unavailable"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

var defaultMessages = map[int]string{
	fiber.StatusOK:                    MessageOK,
	fiber.StatusCreated:               MessageCreated,
	fiber.StatusBadRequest:            MessageBadRequest,
	fiber.StatusUnauthorized:          MessageUnauthorized,
	fiber.StatusForbidden:             MessageForbidden,
	fiber.StatusNotFound:              MessageNotFound,
	fiber.StatusConflict:              MessageConflict,
	fiber.StatusUnprocessableEntity:   MessageUnprocessableEntity,
	fiber.StatusRequestEntityTooLarge: MessagePayloadTooLarge,
	fiber.StatusServiceUnavailable:    MessageServiceUnavailable,
}

func Success(c fiber.Ctx, status int, message string, data any) error {
	return write(c, status, message, data)
}

// Created is Success with 201 and the default message.
func Created(c fiber.Ctx, data any) error {
	return write(c, fiber.StatusCreated, "", data)
}

func Error(c fiber.Ctx, status int, message string, data any) error {
	return write(c, status, message, data)
}

// DefaultMessage returns the envelope message used when none is given.
func DefaultMessage(status int) string {
	status = normalizeStatus(status)
	if msg, ok := defaultMessages[status]; ok {
		return msg
	}
	if status >= 500 {
		return MessageInternalServerError
	}
	return MessageError
}

func write(c fiber.Ctx, status int, message string, data any) error {
	st := normalizeStatus(status)
	if message == "" {
		message = DefaultMessage(st)
	}
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: message, Data: data})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}
