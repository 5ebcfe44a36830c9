package handler

import (
	"context"
	"time"

	"resume-match/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness plus the state of each dependency. Only the
// critical ones turn the response into a 503.
type HealthHandler struct {
	critical map[string]Pinger
	optional map[string]Pinger
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{critical: map[string]Pinger{}, optional: map[string]Pinger{}}
}

func (h *HealthHandler) WithCritical(name string, p Pinger) *HealthHandler {
	if p != nil {
		h.critical[name] = p
	}
	return h
}

func (h *HealthHandler) WithOptional(name string, p Pinger) *HealthHandler {
	if p != nil {
		h.optional[name] = p
	}
	return h
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := map[string]string{}
	for name, p := range h.critical {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "down"
			status = fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}
	for name, p := range h.optional {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "degraded"
			continue
		}
		checks[name] = "up"
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, response.MessageServiceUnavailable, checks)
	}
	return response.Success(c, status, response.MessageOK, checks)
}
