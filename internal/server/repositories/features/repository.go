// Package features persists user embeddings (the user_feature table).
package features

import (
	"context"

	"github.com/dmitrijs2005/userembed/internal/server/models"
)

// Repository defines storage operations over user_feature rows.
type Repository interface {
	// Create inserts f and fills in ID and timestamps. A second row for the
	// same user violates user_feature_user_id_key and yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, f *models.UserFeature) (*models.UserFeature, error)

	// GetByUserID returns the user's feature or common.ErrorNotFound.
	GetByUserID(ctx context.Context, userID int64) (*models.UserFeature, error)

	// UpdateBVector replaces only the packed vector of row id.
	// A missing row yields common.ErrorNotFound.
	UpdateBVector(ctx context.Context, id int64, bvector []byte) error

	// DeleteByUserID hard-deletes the user's feature; common.ErrorNotFound
	// when nothing was deleted.
	DeleteByUserID(ctx context.Context, userID int64) error
}
