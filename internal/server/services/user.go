// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, issuing/refreshing JWTs
// plus server-stored refresh tokens, and cached user lookups.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/cryptox"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/auth"
	"github.com/dmitrijs2005/userembed/internal/server/cache"
	"github.com/dmitrijs2005/userembed/internal/server/config"
	"github.com/dmitrijs2005/userembed/internal/server/models"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/repomanager"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 12
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// RegisterCommand carries the registration form.
type RegisterCommand struct {
	Email     string
	Password1 string
	Password2 string
	Nickname  string
	Favorite  *string
	Lat       *float64
	Lng       *float64
}

// UserService provides account and authentication operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
// - GetUser / IsAdmin: cached point lookups
// - ListUsers: keyset-paginated listing
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	users                        *cache.Lookaside[models.User]
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewUserService constructs a UserService. User lookups are read through c
// with cfg.CacheTTL freshness.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, c cache.Cache, l logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		users:                        cache.NewLookaside[models.User](c, "user", cfg.CacheTTL, l),
		logger:                       l.With("module", "user_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates a new user with an argon2id-hashed password.
func (s *UserService) Register(ctx context.Context, cmd RegisterCommand) (*models.User, error) {
	if cmd.Password1 != cmd.Password2 {
		return nil, common.ErrPasswordMismatch
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmailOrNickname(ctx, cmd.Email, cmd.Nickname)
	switch {
	case err == nil:
		return nil, common.ErrDuplicateUserIdentity
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error searching user: %w", err)
	}

	user := &models.User{
		Email:    cmd.Email,
		Nickname: cmd.Nickname,
		Password: cryptox.HashPassword(cmd.Password1),
		Favorite: cmd.Favorite,
		Lat:      cmd.Lat,
		Lng:      cmd.Lng,
	}
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrDuplicateUserIdentity
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies email/password and, on success, returns a new TokenPair.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(password, user.Password)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}
	s.purgeExpired(ctx, user.ID)
	return pair, nil
}

// RefreshToken consumes refreshToken and returns a fresh TokenPair. A token
// works once; a second use yields ErrorUnauthorized. An expired token is
// still consumed and yields ErrRefreshTokenExpired. The user's other expired
// tokens are purged after the rotation commits.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var (
		pair    *TokenPair
		userID  int64
		expired bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}
		userID = token.UserID
		if token.Expires.Before(time.Now()) {
			expired = true
			return nil
		}
		pair, err = s.generateTokenPair(ctx, token.UserID, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.purgeExpired(ctx, userID)
	if expired {
		return nil, common.ErrRefreshTokenExpired
	}
	return pair, nil
}

// GetUser returns the user by id through the lookaside cache. Profile edits
// may stay invisible here for up to the cache TTL.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.users.GetByID(ctx, id, func(ctx context.Context) (*models.User, error) {
		u, err := s.repomanager.Users(s.db).GetByID(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if u == nil {
		return nil, common.ErrUserNotFound
	}
	return u, nil
}

// IsAdmin reports whether userID has the admin flag.
func (s *UserService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

// ListUsers returns up to limit users older than prev, newest first. limit
// is clamped to 1..MaxListLimit; limit <= 0 selects DefaultListLimit.
func (s *UserService) ListUsers(ctx context.Context, limit int, prev int64) ([]*models.User, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	list, err := s.repomanager.Users(s.db).List(ctx, limit, prev)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return list, nil
}

// --- helpers below ---

func (s *UserService) generateAccessToken(userID int64) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID int64, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	refreshRepo := s.repomanager.RefreshTokens(tx)
	if err := refreshRepo.Create(ctx, userID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// purgeExpired runs on the pool, never inside a transaction: a failed
// statement would abort the surrounding transaction. Failures are logged.
func (s *UserService) purgeExpired(ctx context.Context, userID int64) {
	n, err := s.repomanager.RefreshTokens(s.db).PurgeExpired(ctx, userID)
	if err != nil {
		s.logger.Warn(ctx, "purging expired refresh tokens failed", "user_id", userID, "error", err)
		return
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired refresh tokens purged", "user_id", userID, "count", n)
	}
}
