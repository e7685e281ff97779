// Package users declares and implements persistence of user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/userembed/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its ID and timestamps. A duplicate
	// email or nickname yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByEmailOrNickname returns the first user matching either value.
	GetByEmailOrNickname(ctx context.Context, email, nickname string) (*models.User, error)
	// List returns up to limit users with id < prev (prev <= 0 means from the top), newest first.
	List(ctx context.Context, limit int, prev int64) ([]*models.User, error)
}
