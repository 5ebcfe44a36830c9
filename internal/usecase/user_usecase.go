package usecase

import (
	"context"

	"resume-match/internal/domain/user"
	ucuser "resume-match/internal/usecase/user"

	"github.com/google/uuid"
)

type UserUsecase interface {
	GetMe(ctx context.Context, userID uuid.UUID) (user.User, error)
}

type User struct {
	svc *ucuser.Service
}

func NewUserUsecase(users user.Repository) *User {
	return &User{svc: ucuser.NewService(users)}
}

func (u *User) GetMe(ctx context.Context, userID uuid.UUID) (user.User, error) {
	return u.svc.GetMe(ctx, userID)
}
