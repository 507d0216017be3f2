package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trueheartapps/versesync/internal/common"
	"github.com/trueheartapps/versesync/internal/server/auth"
	"github.com/trueheartapps/versesync/internal/server/config"
	"github.com/trueheartapps/versesync/internal/server/sessions"
)

// Session is an authenticated user together with a freshly issued token.
type Session struct {
	UserID string
	Email  string
	Token  string
}

type Service struct {
	repo                    Repository
	sessionRepo             sessions.Repository
	jwtSecret               []byte
	sessionValidityDuration time.Duration
}

func NewService(repo Repository, sessionRepo sessions.Repository, cfg *config.Config) *Service {
	return &Service{
		repo:                    repo,
		sessionRepo:             sessionRepo,
		jwtSecret:               []byte(cfg.SecretKey),
		sessionValidityDuration: cfg.SessionValidityDuration,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := s.repo.Create(ctx, &User{Email: email, PasswordHash: hash})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %v", err)
	}

	return s.openSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.openSession(ctx, user)
}

// openSession issues a signed token and records it so logout can revoke it.
func (s *Service) openSession(ctx context.Context, user *User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.sessionValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.sessionRepo.Create(ctx, user.ID, token, s.sessionValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{UserID: user.ID, Email: user.Email, Token: token}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessionRepo.Delete(ctx, token)
}

// Validate checks the token's signature, expiry and revocation status, and
// returns the session it belongs to.
func (s *Service) Validate(ctx context.Context, token string) (*Session, error) {
	userID, err := auth.GetUserIDFromToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	ok, err := s.sessionRepo.Exists(ctx, token)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	return &Session{UserID: user.ID, Email: user.Email, Token: token}, nil
}
