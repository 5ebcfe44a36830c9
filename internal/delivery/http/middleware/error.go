package middleware

import (
	"errors"

	"resume-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data interface{}, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	logger logrus.FieldLogger
}

func NewErrorMiddleware(logger logrus.FieldLogger) *ErrorMiddleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.WithField("path", c.Path()).Errorf("panic recovered: %v", r)
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		return m.Handle(c, err)
	}
}

// Handle renders err as an envelope. It also serves as the fiber ErrorHandler
// for errors raised before any handler runs, such as an oversized body.
func (m *ErrorMiddleware) Handle(c fiber.Ctx, err error) error {
	status, msg, data := normalizeError(err)
	if status >= 500 {
		m.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return response.Error(c, status, msg, data)
}

func normalizeError(err error) (int, string, interface{}) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}

		status := appErr.StatusCode
		if status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}

		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, appErr.Data
	}

	var fiberErr *fiber.Error
	if asFiberError(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}

		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}

func asFiberError(err error, target **fiber.Error) bool {
	return errors.As(err, target)
}
