package ws

import (
	"context"
	"net/http"

	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (jwt.Claims, error)
}

type Handler struct {
	hub    *Hub
	auth   Authenticator
	logger logrus.FieldLogger
}

func NewHandler(hub *Hub, auth Authenticator, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{hub: hub, auth: auth, logger: logger}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	r.Get("/matches", h.HandleMatchesWS)
}

// HandleMatchesWS streams match_completed events of the token's user. Browsers
// cannot set headers on websocket requests, so the token may come as ?token=.
func (h *Handler) HandleMatchesWS(c fiber.Ctx) error {
	if h == nil || h.hub == nil || h.auth == nil {
		return fiber.ErrServiceUnavailable
	}

	token := c.Query("token")
	if token == "" {
		token, _ = middleware.BearerToken(c.Get("Authorization"))
	}
	if token == "" {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	claims, err := h.auth.Authenticate(c.Context(), token)
	if err != nil {
		return err
	}

	fiberHandler := adaptor.HTTPHandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.WithError(err).Warn("ws upgrade failed")
			return
		}

		client := NewClient(h.hub, conn, claims.UserID)
		h.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return fiberHandler(c)
}
