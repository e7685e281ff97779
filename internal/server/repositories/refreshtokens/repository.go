// Package refreshtokens stores the opaque refresh tokens handed out at login.
// Tokens are single use: rotating one removes it in the same statement that
// reads it.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/userembed/internal/server/models"
)

type Repository interface {
	// Create stores token for userID, valid until now+validity.
	Create(ctx context.Context, userID int64, token string, validity time.Duration) error

	// Consume deletes token and returns the removed row, expired or not.
	// Unknown or already consumed tokens yield common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)

	// PurgeExpired drops every expired token of userID and returns how many
	// rows were removed.
	PurgeExpired(ctx context.Context, userID int64) (int64, error)
}
