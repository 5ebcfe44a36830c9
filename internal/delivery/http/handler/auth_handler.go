package handler

import (
	"errors"

	"resume-match/internal/delivery/http/dto"
	"resume-match/internal/delivery/http/middleware"
	"resume-match/internal/pkg/response"
	"resume-match/internal/usecase"
	ucauth "resume-match/internal/usecase/auth"

	"github.com/gofiber/fiber/v3"
)

type AuthHandler struct {
	uc usecase.AuthUsecase
}

type signupRequest struct {
	Username  string `json:"username" form:"username"`
	Email     string `json:"email" form:"email"`
	Password1 string `json:"password1" form:"password1"`
	Password2 string `json:"password2" form:"password2"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// RegisterRoutes mounts the public endpoints; logout needs the auth
// middleware and is mounted by the caller.
func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
}

func (h *AuthHandler) Signup(c fiber.Ctx) error {
	var req signupRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	usr, err := h.uc.Register(c.Context(), ucauth.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password1: req.Password1,
		Password2: req.Password2,
	})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	return response.Created(c, dto.NewUserResponse(usr))
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	usr, access, refresh, err := h.uc.Login(c.Context(), ucauth.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		return mapAuthUsecaseError(err)
	}

	u := dto.NewUserResponse(usr)
	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.AuthTokensResponse{
		User:         &u,
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	tok, ok := middleware.BearerToken(c.Get("Authorization"))
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}

	access, refresh, err := h.uc.Refresh(c.Context(), tok)
	if err != nil {
		if errors.Is(err, usecase.ErrRefreshTokenExpired) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Refresh token expired", nil, err)
		}
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid refresh token", nil, err)
		}
		if errors.Is(err, usecase.ErrUnauthorized) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.AuthTokensResponse{
		AccessToken:  access,
		RefreshToken: refresh,
	})
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, ok := middleware.ClaimsFromCtx(c)
	if !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	var req logoutRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
		}
	}
	if err := h.uc.Logout(c.Context(), claims, req.RefreshToken); err != nil {
		if errors.Is(err, usecase.ErrInvalidRefreshToken) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid refresh token", nil, err)
		}
		if errors.Is(err, usecase.ErrUnauthorized) {
			return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
		}
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
	return response.Success(c, fiber.StatusOK, "Logged out", nil)
}

func mapAuthUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ucauth.ErrUsernameTaken):
		return middleware.NewAppError(fiber.StatusConflict, "Username already taken", nil, err)
	case errors.Is(err, ucauth.ErrPasswordMismatch):
		return middleware.NewAppError(fiber.StatusBadRequest, "Passwords do not match", nil, err)
	case errors.Is(err, ucauth.ErrPasswordTooShort):
		return middleware.NewAppError(fiber.StatusBadRequest, "Password too short", nil, err)
	case errors.Is(err, ucauth.ErrPasswordTooLong):
		return middleware.NewAppError(fiber.StatusBadRequest, "Password too long", nil, err)
	case errors.Is(err, ucauth.ErrInvalidCredentials):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Invalid username or password", nil, err)
	case errors.Is(err, ucauth.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
