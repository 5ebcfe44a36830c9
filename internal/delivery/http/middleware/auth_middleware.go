package middleware

import (
	"context"
	"errors"
	"strings"

	"resume-match/internal/pkg/jwt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUsernameKey = "username"
	CtxClaimsKey   = "claims"
)

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	jwt     jwt.Service
	revoked RevocationChecker
}

func NewAuthMiddleware(jwtSvc jwt.Service, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwtSvc, revoked: revoked}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token, ok := BearerToken(c.Get("Authorization"))
		if !ok {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		claims, err := m.Authenticate(c.Context(), token)
		if err != nil {
			return err
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUsernameKey, claims.Username)
		c.Locals(CtxClaimsKey, claims)

		return c.Next()
	}
}

// Authenticate validates an access token and checks it has not been revoked.
// Errors are *AppError values ready to be returned from a handler.
func (m *AuthMiddleware) Authenticate(ctx context.Context, token string) (jwt.Claims, error) {
	claims, err := m.jwt.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Token expired", nil, err)
		}
		return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Invalid token", nil, err)
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err == nil && revoked {
			return jwt.Claims{}, NewAppError(fiber.StatusUnauthorized, "Token revoked", nil, nil)
		}
	}
	return claims, nil
}

func UserIDFromCtx(c fiber.Ctx) (uuid.UUID, bool) {
	v, ok := c.Locals(CtxUserIDKey).(uuid.UUID)
	if !ok || v == uuid.Nil {
		return uuid.Nil, false
	}
	return v, true
}

func ClaimsFromCtx(c fiber.Ctx) (jwt.Claims, bool) {
	v, ok := c.Locals(CtxClaimsKey).(jwt.Claims)
	return v, ok
}

func BearerToken(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
