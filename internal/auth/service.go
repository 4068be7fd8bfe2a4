package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventhub/eventhub/internal/shared"
)

// DefaultUserStatus is assigned to self-registered accounts.
const DefaultUserStatus = "New"

// Service wraps authentication business rules.
type Service struct {
	repo  Repository
	codec *Codec
	ttl   time.Duration
	now   func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, codec *Codec, ttl time.Duration) *Service {
	return &Service{repo: repo, codec: codec, ttl: ttl, now: time.Now}
}

// LoginResult is the issued access token.
type LoginResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login checks credentials and issues an access token. The token carries the
// previous last_login; the stored value is advanced afterwards.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrResourceNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth: login lookup: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInactiveAccount
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	token, err := s.codec.Encode(user.ID.String(), now, expiresAt, TokenExtras{LastLogin: user.LastLogin})
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// Register creates an active account together with its attendee profile.
func (s *Service) Register(ctx context.Context, in Registration) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	user := &User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		IsActive:     true,
		Status:       DefaultUserStatus,
	}
	return s.repo.CreateAccount(ctx, user, in.Phone)
}
