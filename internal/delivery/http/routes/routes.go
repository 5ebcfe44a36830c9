package routes

import (
	"resume-match/internal/delivery/http/handler"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/usecase"
	"resume-match/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Deps are the already-built collaborators the HTTP surface is mounted on.
type Deps struct {
	Auth   usecase.AuthUsecase
	Users  usecase.UserUsecase
	Match  usecase.MatchUsecase
	AuthMw *middleware.AuthMiddleware
	Health *handler.HealthHandler
	WS     *ws.Handler
}

type Registry struct {
	deps Deps
}

func NewRegistry(deps Deps) *Registry {
	if deps.Health == nil {
		deps.Health = handler.NewHealthHandler()
	}
	return &Registry{deps: deps}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.deps.Health.RegisterRoutes(app)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r.deps)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.deps.WS == nil {
		return
	}
	r.deps.WS.RegisterRoutes(app.Group("/ws"))
}
