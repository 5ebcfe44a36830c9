package app

import (
	"fmt"
	"strings"

	"resume-match/internal/config"
	"resume-match/internal/delivery/http/handler"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/delivery/http/routes"
	"resume-match/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/sirupsen/logrus"
)

// room for the multipart envelope around the largest accepted resume
const multipartOverhead = 1 << 20

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application on top of an initialised container.
func New(c *Container) *App {
	cfg := c.Config
	logger := c.Logger

	errMw := middleware.NewErrorMiddleware(logger)
	f := fiber.New(fiber.Config{
		AppName:      cfg.App.AppName,
		BodyLimit:    int(cfg.Match.MaxUploadBytes) + multipartOverhead,
		ErrorHandler: errMw.Handle,
	})

	registerGlobalMiddleware(f, logger, errMw)
	registerStatic(f, cfg)

	health := handler.NewHealthHandler().
		WithCritical("database", c.DB).
		WithOptional("redis", c.Redis)

	routes.NewRegistry(routes.Deps{
		Auth:   c.AuthUsecase,
		Users:  c.UserUsecase,
		Match:  c.MatchUsecase,
		AuthMw: c.AuthMw,
		Health: health,
		WS:     ws.NewHandler(c.Hub, c.AuthMw, logger.WithField("component", "ws")),
	}).Register(f)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container and the HTTP application. The returned
// cleanup releases every connection the container opened.
func Bootstrap(cfg config.Config, logger logrus.FieldLogger) (*App, func() error, error) {
	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger logrus.FieldLogger, errMw *middleware.ErrorMiddleware) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(errMw.Middleware())
}

func registerStatic(app *fiber.App, cfg config.Config) {
	route := strings.TrimRight(strings.TrimSpace(cfg.App.MediaRoute), "/")
	dir := strings.TrimSpace(cfg.Rasterizer.OutputDir)
	if route == "" || dir == "" {
		return
	}
	app.Use(route, static.New(dir))
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
