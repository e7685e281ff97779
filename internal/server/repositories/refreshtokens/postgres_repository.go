package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, token string, validity time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, token, time.Now().Add(validity)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING id, user_id, token, expires_at, created_at
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.ID, &rt.UserID, &rt.Token, &rt.Expires, &rt.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

func (r *PostgresRepository) PurgeExpired(ctx context.Context, userID int64) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1 AND expires_at <= now()
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
