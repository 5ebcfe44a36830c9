package v1

import (
	"resume-match/internal/delivery/http/handler"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Auth   usecase.AuthUsecase
	Users  usecase.UserUsecase
	Match  usecase.MatchUsecase
	AuthMw *middleware.AuthMiddleware
}

func Register(r fiber.Router, h Handlers) {
	if r == nil || h.AuthMw == nil {
		return
	}

	authHandler := handler.NewAuthHandler(h.Auth)
	userHandler := handler.NewUserHandler(h.Users)
	matchHandler := handler.NewMatchHandler(h.Match)

	authGroup := r.Group("/auth")
	authHandler.RegisterRoutes(authGroup)
	authGroup.Post("/logout", h.AuthMw.Middleware(), authHandler.Logout)

	protected := r.Group("", h.AuthMw.Middleware())

	usersGroup := protected.Group("/users")
	userHandler.RegisterRoutes(usersGroup)

	matchHandler.RegisterRoutes(protected)
}
