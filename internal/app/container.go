package app

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/database"
	dbpostgres "resume-match/internal/database/postgres"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/infrastructure/cache"
	"resume-match/internal/infrastructure/events"
	"resume-match/internal/infrastructure/pdftext"
	"resume-match/internal/infrastructure/rasterizer"
	"resume-match/internal/infrastructure/storage"
	"resume-match/internal/pkg/jwt"
	"resume-match/internal/repository"
	"resume-match/internal/usecase"
	ucauth "resume-match/internal/usecase/auth"
	"resume-match/internal/ws"

	"github.com/sirupsen/logrus"
)

// Container owns every long-lived dependency of the server process.
type Container struct {
	Config config.Config
	Logger logrus.FieldLogger

	DB         database.DB
	Redis      *cache.Redis
	Storage    storage.Storage
	Rasterizer *rasterizer.Poppler
	Events     *events.Publisher
	Hub        *ws.Hub
	JWT        jwt.Service

	Revocations *cache.TokenRevocations
	AuthMw      *middleware.AuthMiddleware

	AuthUsecase  usecase.AuthUsecase
	UserUsecase  usecase.UserUsecase
	MatchUsecase usecase.MatchUsecase
}

func NewContainer(cfg config.Config, logger logrus.FieldLogger) (*Container, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Logger: logger, DB: db}

	c.Storage, err = storage.New(ctx, cfg.Storage, logger.WithField("component", "storage"))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.Events, err = events.Dial(cfg.AMQP, logger.WithField("component", "events"))
	if err != nil {
		// the broker is optional; matches still complete without it
		logger.WithError(err).Warn("event publisher disabled")
		c.Events = nil
	}

	c.Redis = cache.NewRedis(cfg.Redis, logger.WithField("component", "redis"))
	c.Revocations = cache.NewTokenRevocations(c.Redis)

	bin := rasterizer.ResolveBinary(cfg.Rasterizer.Binary, os.Getenv, exec.LookPath)
	c.Rasterizer = rasterizer.New(cfg.Rasterizer, bin, logger.WithField("component", "rasterizer"))
	if !c.Rasterizer.Enabled() {
		logger.Warn("pdftoppm not found, page previews disabled")
	}

	c.Hub = ws.NewHub(logger.WithField("component", "ws"))

	c.JWT = jwt.NewHMACService(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiresIn,
		cfg.JWT.RefreshExpiresIn,
	)
	c.AuthMw = middleware.NewAuthMiddleware(c.JWT, c.Revocations)

	userRepo := repository.NewPostgresUserRepository(db)
	matchRepo := repository.NewPostgresMatchRecordRepository(db)

	c.AuthUsecase = usecase.NewAuthUsecase(ucauth.NewService(userRepo), userRepo, c.JWT, c.Revocations)
	c.UserUsecase = usecase.NewUserUsecase(userRepo)

	notifiers := []usecase.MatchNotifier{ws.NewNotifier(c.Hub)}
	if c.Events != nil {
		notifiers = append(notifiers, c.Events)
	}
	c.MatchUsecase = usecase.NewMatchUsecase(usecase.MatchDeps{
		Records:   matchRepo,
		Storage:   c.Storage,
		Extractor: pdftext.NewExtractor(logger.WithField("component", "pdftext")),
		Renderer:  c.Rasterizer,
		Cache:     cache.NewMatchCache(c.Redis, cfg.Redis.TTL),
		Notifiers: notifiers,
		Logger:    logger.WithField("component", "match"),
		Config:    cfg.Match,
	})

	return c, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs []error
	if c.Events != nil {
		errs = append(errs, c.Events.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
