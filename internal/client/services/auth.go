package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/trueheartapps/versesync/internal/client/remote"
	"github.com/trueheartapps/versesync/internal/client/repositories/metadata"
	"github.com/trueheartapps/versesync/internal/client/storage"
	"github.com/trueheartapps/versesync/internal/common"
)

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Register: create an account and open a session.
//   - Login: open a session and persist its token locally.
//   - Logout: close the session and wipe the persisted token.
//   - Restore: re-install a persisted token and validate it against the
//     server; returns common.ErrorUnauthorized when no usable session exists.
type AuthService interface {
	Register(ctx context.Context, email, password string) (remote.Session, error)
	Login(ctx context.Context, email, password string) (remote.Session, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (remote.Session, error)
}

type authService struct {
	client remote.Client
	repos  *storage.Repositories
}

func NewAuthService(client remote.Client, repos *storage.Repositories) AuthService {
	return &authService{client: client, repos: repos}
}

func (a *authService) Register(ctx context.Context, email, password string) (remote.Session, error) {
	sess, err := a.client.Register(ctx, email, password)
	if err != nil {
		return remote.Session{}, err
	}
	if err := a.repos.Metadata.Set(ctx, metadata.KeySessionToken, []byte(sess.Token)); err != nil {
		return remote.Session{}, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (remote.Session, error) {
	sess, err := a.client.Login(ctx, email, password)
	if err != nil {
		return remote.Session{}, err
	}
	if err := a.repos.Metadata.Set(ctx, metadata.KeySessionToken, []byte(sess.Token)); err != nil {
		return remote.Session{}, fmt.Errorf("failed to persist session: %w", err)
	}
	return sess, nil
}

func (a *authService) Logout(ctx context.Context) error {
	err := a.client.Logout(ctx)
	if delErr := a.repos.Metadata.Delete(ctx, metadata.KeySessionToken); delErr != nil && err == nil {
		err = delErr
	}
	return err
}

// Restore installs the token persisted by a previous run and validates it.
func (a *authService) Restore(ctx context.Context) (remote.Session, error) {
	token, err := a.repos.Metadata.Get(ctx, metadata.KeySessionToken)
	if err != nil {
		return remote.Session{}, err
	}
	if len(token) == 0 {
		return remote.Session{}, common.ErrorUnauthorized
	}

	a.client.SetToken(string(token))
	sess, err := a.client.Validate(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			_ = a.repos.Metadata.Delete(ctx, metadata.KeySessionToken)
		}
		return remote.Session{}, err
	}
	return sess, nil
}
