package handler

import (
	"errors"

	"resume-match/internal/delivery/http/dto"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/pkg/response"
	"resume-match/internal/usecase"
	useruc "resume-match/internal/usecase/user"

	"github.com/gofiber/fiber/v3"
)

type UserHandler struct {
	uc usecase.UserUsecase
}

func NewUserHandler(uc usecase.UserUsecase) *UserHandler {
	return &UserHandler{uc: uc}
}

func (h *UserHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/me", h.GetMe)
}

func (h *UserHandler) GetMe(c fiber.Ctx) error {
	userID, ok := middleware.UserIDFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	usr, err := h.uc.GetMe(c.Context(), userID)
	if err != nil {
		if errors.Is(err, useruc.ErrNotFound) {
			return middleware.NewAppError(fiber.StatusNotFound, "User not found", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.NewUserResponse(usr))
}
