package routes

import (
	v1 "resume-match/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, deps Deps) {
	if r == nil {
		return
	}

	v1.Register(r, v1.Handlers{
		Auth:   deps.Auth,
		Users:  deps.Users,
		Match:  deps.Match,
		AuthMw: deps.AuthMw,
	})
}
