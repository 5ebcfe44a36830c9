package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carries the user identity. RegisteredClaims.ID is a per-token jti
// used for revocation.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	TokenType string    `json:"token_type"`

	jwtlib.RegisteredClaims
}

func (c Claims) ExpiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

type Service interface {
	GenerateAccessToken(userID uuid.UUID, username string) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ValidateAccessToken(tokenString string) (Claims, error)
	ValidateRefreshToken(tokenString string) (Claims, error)
	AccessTTL() time.Duration
}

type HMACService struct {
	accessSecret  []byte
	refreshSecret []byte

	accessExpiresIn  time.Duration
	refreshExpiresIn time.Duration

	now func() time.Time
}

func NewHMACService(accessSecret, refreshSecret string, accessExpiresIn, refreshExpiresIn time.Duration) *HMACService {
	return &HMACService{
		accessSecret:     []byte(accessSecret),
		refreshSecret:    []byte(refreshSecret),
		accessExpiresIn:  accessExpiresIn,
		refreshExpiresIn: refreshExpiresIn,
		now:              time.Now,
	}
}

func (s *HMACService) AccessTTL() time.Duration { return s.accessExpiresIn }

func (s *HMACService) GenerateAccessToken(userID uuid.UUID, username string) (string, error) {
	return s.generate(TokenTypeAccess, userID, username)
}

func (s *HMACService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return s.generate(TokenTypeRefresh, userID, "")
}

func (s *HMACService) ValidateAccessToken(tokenString string) (Claims, error) {
	return s.validate(tokenString, TokenTypeAccess)
}

func (s *HMACService) ValidateRefreshToken(tokenString string) (Claims, error) {
	return s.validate(tokenString, TokenTypeRefresh)
}

func (s *HMACService) generate(tokenType string, userID uuid.UUID, username string) (string, error) {
	if userID == uuid.Nil {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	secret, expIn, err := s.secretAndExpiry(tokenType)
	if err != nil {
		return "", err
	}

	c := Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(expIn)),
			Subject:   userID.String(),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(secret)
}

func (s *HMACService) validate(tokenString, tokenType string) (Claims, error) {
	secret, _, err := s.secretAndExpiry(tokenType)
	if err != nil {
		return Claims{}, err
	}

	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}

	if c.TokenType != tokenType || c.UserID == uuid.Nil || c.ID == "" {
		return Claims{}, ErrTokenInvalid
	}

	return c, nil
}

func (s *HMACService) secretAndExpiry(tokenType string) ([]byte, time.Duration, error) {
	switch tokenType {
	case TokenTypeAccess:
		if len(s.accessSecret) == 0 || s.accessExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.accessSecret, s.accessExpiresIn, nil
	case TokenTypeRefresh:
		if len(s.refreshSecret) == 0 || s.refreshExpiresIn <= 0 {
			return nil, 0, ErrTokenInvalid
		}
		return s.refreshSecret, s.refreshExpiresIn, nil
	default:
		return nil, 0, ErrTokenInvalid
	}
}
