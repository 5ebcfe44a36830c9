package usecase

import (
	"context"
	"errors"
	"time"

	"resume-match/internal/domain/user"
	"resume-match/internal/pkg/jwt"
	ucauth "resume-match/internal/usecase/auth"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInternal            = errors.New("internal error")
)

// TokenRevoker records token ids that must no longer be accepted.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthUsecase interface {
	Register(ctx context.Context, in ucauth.RegisterInput) (user.User, error)
	Login(ctx context.Context, in ucauth.LoginInput) (user.User, string, string, error)
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, access jwt.Claims, refreshToken string) error
}

type Auth struct {
	authSvc *ucauth.Service
	users   user.Repository
	jwt     jwt.Service
	revoker TokenRevoker
}

func NewAuthUsecase(authSvc *ucauth.Service, users user.Repository, jwtSvc jwt.Service, revoker TokenRevoker) *Auth {
	if authSvc == nil {
		authSvc = ucauth.NewService(users)
	}
	return &Auth{authSvc: authSvc, users: users, jwt: jwtSvc, revoker: revoker}
}

// Register creates the account only; the client logs in afterwards.
func (u *Auth) Register(ctx context.Context, in ucauth.RegisterInput) (user.User, error) {
	return u.authSvc.Register(ctx, in)
}

func (u *Auth) Login(ctx context.Context, in ucauth.LoginInput) (user.User, string, string, error) {
	usr, err := u.authSvc.Login(ctx, in)
	if err != nil {
		return user.User{}, "", "", err
	}

	access, refresh, err := u.issue(usr)
	if err != nil {
		return user.User{}, "", "", err
	}
	return usr, access, refresh, nil
}

// Refresh rotates the token pair; the presented refresh token is revoked.
func (u *Auth) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if refreshToken == "" {
		return "", "", ErrUnauthorized
	}

	claims, err := u.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", ErrRefreshTokenExpired
		}
		return "", "", ErrInvalidRefreshToken
	}

	if u.revoker != nil {
		revoked, err := u.revoker.IsRevoked(ctx, claims.ID)
		if err == nil && revoked {
			return "", "", ErrInvalidRefreshToken
		}
	}

	usr, err := u.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", "", ErrInvalidRefreshToken
		}
		return "", "", ErrInternal
	}

	access, newRefresh, err := u.issue(usr)
	if err != nil {
		return "", "", err
	}

	if u.revoker != nil {
		_ = u.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt())
	}
	return access, newRefresh, nil
}

// Logout revokes the access token and, when given, the refresh token of the
// same user. An expired refresh token needs no revocation.
func (u *Auth) Logout(ctx context.Context, access jwt.Claims, refreshToken string) error {
	if access.ID == "" {
		return ErrUnauthorized
	}

	var refresh *jwt.Claims
	if refreshToken != "" {
		claims, err := u.jwt.ValidateRefreshToken(refreshToken)
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
		case err != nil:
			return ErrInvalidRefreshToken
		case claims.UserID != access.UserID:
			return ErrInvalidRefreshToken
		default:
			refresh = &claims
		}
	}

	if u.revoker == nil {
		return nil
	}
	if err := u.revoker.Revoke(ctx, access.ID, access.ExpiresAt()); err != nil {
		return ErrInternal
	}
	if refresh != nil {
		if err := u.revoker.Revoke(ctx, refresh.ID, refresh.ExpiresAt()); err != nil {
			return ErrInternal
		}
	}
	return nil
}

func (u *Auth) issue(usr user.User) (string, string, error) {
	access, err := u.jwt.GenerateAccessToken(usr.ID, usr.Username)
	if err != nil {
		return "", "", ErrInternal
	}
	refresh, err := u.jwt.GenerateRefreshToken(usr.ID)
	if err != nil {
		return "", "", ErrInternal
	}
	return access, refresh, nil
}
