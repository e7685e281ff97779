package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/server/models"
)

const userColumns = `id, email, nickname, password, favorite, lat, lng, is_admin, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, nickname, password, favorite, lat, lng, is_admin)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Nickname, user.Password, user.Favorite, user.Lat, user.Lng, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err, "") {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByEmailOrNickname(ctx context.Context, email, nickname string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR nickname = $2 LIMIT 1`
	return r.getOne(ctx, query, email, nickname)
}

func (r *PostgresRepository) List(ctx context.Context, limit int, prev int64) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ($1::bigint <= 0 OR id < $1::bigint) ORDER BY id DESC LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, prev, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := scanUser(rows, u); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, args...), user)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, u *models.User) error {
	var favorite sql.NullString
	var lat, lng sql.NullFloat64

	if err := s.Scan(&u.ID, &u.Email, &u.Nickname, &u.Password, &favorite, &lat, &lng,
		&u.IsAdmin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return err
	}

	if favorite.Valid {
		u.Favorite = &favorite.String
	}
	if lat.Valid {
		u.Lat = &lat.Float64
	}
	if lng.Valid {
		u.Lng = &lng.Float64
	}
	return nil
}
