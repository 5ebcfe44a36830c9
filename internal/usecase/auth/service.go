package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"resume-match/internal/domain/user"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInternal           = errors.New("internal error")
)

type RegisterInput struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

type LoginInput struct {
	Username string
	Password string
}

type Service struct {
	users user.Repository
	cost  int
}

func NewService(users user.Repository) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost}
}

// WithCost returns a copy hashing with the given bcrypt cost.
func (s *Service) WithCost(cost int) *Service {
	cp := *s
	cp.cost = cost
	return &cp
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	username := normalizeUsername(in.Username)
	if username == "" {
		return user.User{}, ErrInvalidInput
	}
	if in.Password1 != in.Password2 {
		return user.User{}, ErrPasswordMismatch
	}
	if len(strings.TrimSpace(in.Password1)) < MinPasswordLength {
		return user.User{}, ErrPasswordTooShort
	}
	if len(in.Password1) > MaxPasswordBytes {
		return user.User{}, ErrPasswordTooLong
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return user.User{}, ErrInternal
	}
	if exists {
		return user.User{}, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password1), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return user.User{}, ErrPasswordTooLong
	}
	if err != nil {
		return user.User{}, ErrInternal
	}

	u := user.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
	}

	if err := s.users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, user.ErrDuplicateUsername) {
			return user.User{}, ErrUsernameTaken
		}
		return user.User{}, ErrInternal
	}

	created, err := s.users.GetUserByID(ctx, u.ID)
	if err != nil {
		return user.User{}, ErrInternal
	}
	return Sanitize(created), nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (user.User, error) {
	username := normalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return user.User{}, ErrInvalidCredentials
	}

	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, ErrInternal
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return Sanitize(u), nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Sanitize strips the password hash before a user leaves the usecase layer.
func Sanitize(u user.User) user.User {
	u.PasswordHash = ""
	return u
}
