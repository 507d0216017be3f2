// Package sessions stores issued session tokens so logout can revoke them
// before their JWT expiry.
package sessions

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Exists reports whether the token is stored and not yet expired.
	Exists(ctx context.Context, token string) (bool, error)

	Delete(ctx context.Context, token string) error

	// DeleteExpired removes sessions past their expiry.
	DeleteExpired(ctx context.Context) error
}
