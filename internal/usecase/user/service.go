package user

import (
	"context"
	"errors"

	"resume-match/internal/domain/user"
	"resume-match/internal/usecase/auth"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("user not found")
	ErrInternal = errors.New("internal error")
)

type Service struct {
	users user.Repository
}

func NewService(users user.Repository) *Service {
	return &Service{users: users}
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (user.User, error) {
	usr, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrNotFound
		}
		return user.User{}, ErrInternal
	}
	return auth.Sanitize(usr), nil
}
