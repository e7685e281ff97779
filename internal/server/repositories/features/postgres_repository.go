package features

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/server/models"
)

// UserIDConstraint is the unique constraint guarding one feature per user.
const UserIDConstraint = "user_feature_user_id_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.UserFeature) (*models.UserFeature, error) {
	query := `
		INSERT INTO user_feature (user_id, bvector, size, dtype)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, f.UserID, f.BVector, f.Size, f.DType).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, UserIDConstraint) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserFeature, error) {
	query := `
		SELECT id, user_id, bvector, size, dtype, created_at, updated_at
		FROM user_feature
		WHERE user_id = $1
	`
	f := &models.UserFeature{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&f.ID, &f.UserID, &f.BVector, &f.Size, &f.DType, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) UpdateBVector(ctx context.Context, id int64, bvector []byte) error {
	query := `
		UPDATE user_feature
		SET bvector = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, bvector)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	query := `
		DELETE FROM user_feature
		WHERE user_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
