package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/logging"
	"github.com/dmitrijs2005/userembed/internal/server/embedding"
	"github.com/dmitrijs2005/userembed/internal/server/models"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/userembed/internal/vector"
)

// UserLookup resolves a user by id; absent users yield common.ErrUserNotFound.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// EmbeddingGateway fetches a user's embedding over the chosen protocol.
type EmbeddingGateway interface {
	Fetch(ctx context.Context, protocol embedding.Protocol, userID int64, req embedding.Request, binaryOnly bool) (*embedding.Result, error)
}

// FeatureCommand is the input of Create and Update. For Update a zero Size
// or empty DType means "keep the stored one".
type FeatureCommand struct {
	Protocol embedding.Protocol
	Size     int
	DType    vector.DType
}

// FeatureVector is a decoded embedding with its declared shape.
type FeatureVector struct {
	Vector vector.Matrix
	Size   int
	DType  vector.DType
}

// FeatureBinary is a stored embedding in packed form.
type FeatureBinary struct {
	BVector []byte
	Size    int
	DType   vector.DType
}

// DeletedFeature describes a removed feature row.
type DeletedFeature struct {
	ID     int64
	UserID int64
	Size   int
	DType  vector.DType
}

// FeatureService manages the single embedding each user may own.
//
// Provider calls are made outside any transaction; a short transaction then
// re-checks existence and writes. The user_feature.user_id unique constraint
// is the final arbiter between concurrent creators.
type FeatureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       UserLookup
	gateway     EmbeddingGateway
	logger      logging.Logger
}

func NewFeatureService(db *sql.DB, m repomanager.RepositoryManager, users UserLookup, gw EmbeddingGateway, l logging.Logger) *FeatureService {
	return &FeatureService{
		db:          db,
		repomanager: m,
		users:       users,
		gateway:     gw,
		logger:      l.With("module", "feature_service"),
	}
}

// Create fetches and stores a new embedding for userID.
func (s *FeatureService) Create(ctx context.Context, userID int64, cmd FeatureCommand) (*FeatureVector, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := checkShape(cmd.Size, cmd.DType); err != nil {
		return nil, err
	}

	if err := s.ensureAbsent(ctx, s.db, userID); err != nil {
		return nil, err
	}

	res, err := s.gateway.Fetch(ctx, cmd.Protocol, userID, profileRequest(user, cmd.Size, cmd.DType), false)
	if err != nil {
		return nil, err
	}
	if err := checkLength(res.BVector, cmd.Size, cmd.DType); err != nil {
		return nil, err
	}

	f := &models.UserFeature{UserID: userID, BVector: res.BVector, Size: cmd.Size, DType: cmd.DType.String()}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.ensureAbsent(ctx, tx, userID); err != nil {
			return err
		}

		if _, err := s.repomanager.Features(tx).Create(ctx, f); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.ErrFeatureAlreadyExists
			}
			return fmt.Errorf("error creating feature: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "feature created", "user_id", userID, "protocol", cmd.Protocol, "size", cmd.Size, "dtype", cmd.DType)
	return resultVector(res, cmd.Size, cmd.DType)
}

// Update refetches the embedding and replaces the stored vector in place.
// The stored size and dtype never change; a command naming different ones
// fails with ErrFeatureShapeMismatch before the provider is called.
func (s *FeatureService) Update(ctx context.Context, userID int64, cmd FeatureCommand) (*FeatureVector, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	dt := vector.DType(existing.DType)
	if (cmd.Size != 0 && cmd.Size != existing.Size) || (cmd.DType != "" && cmd.DType != dt) {
		return nil, fmt.Errorf("%w: stored feature is %d x %s, update requested %d x %s",
			common.ErrFeatureShapeMismatch, existing.Size, dt, cmd.Size, cmd.DType)
	}

	res, err := s.gateway.Fetch(ctx, cmd.Protocol, userID, profileRequest(user, existing.Size, dt), false)
	if err != nil {
		return nil, err
	}
	if err := checkLength(res.BVector, existing.Size, dt); err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := s.find(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.repomanager.Features(tx).UpdateBVector(ctx, cur.ID, res.BVector); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrFeatureNotFound
			}
			return fmt.Errorf("error updating feature: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "feature updated", "user_id", userID, "protocol", cmd.Protocol)
	return resultVector(res, existing.Size, dt)
}

// Get returns the stored embedding decoded per its stored dtype.
func (s *FeatureService) Get(ctx context.Context, userID int64) (*FeatureVector, error) {
	b, err := s.GetBinary(ctx, userID)
	if err != nil {
		return nil, err
	}
	m, err := vector.Decode(b.BVector, b.DType)
	if err != nil {
		return nil, err
	}
	return &FeatureVector{Vector: m, Size: b.Size, DType: b.DType}, nil
}

// GetBinary returns the stored embedding without decoding it.
func (s *FeatureService) GetBinary(ctx context.Context, userID int64) (*FeatureBinary, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	f, err := s.find(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return &FeatureBinary{BVector: f.BVector, Size: f.Size, DType: vector.DType(f.DType)}, nil
}

// Delete removes userID's embedding and returns what was removed.
func (s *FeatureService) Delete(ctx context.Context, userID int64) (*DeletedFeature, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	var deleted *DeletedFeature
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		f, err := s.find(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.repomanager.Features(tx).DeleteByUserID(ctx, userID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrFeatureNotFound
			}
			return fmt.Errorf("error deleting feature: %w", err)
		}
		deleted = &DeletedFeature{ID: f.ID, UserID: f.UserID, Size: f.Size, DType: vector.DType(f.DType)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "feature deleted", "user_id", userID, "feature_id", deleted.ID)
	return deleted, nil
}

func (s *FeatureService) find(ctx context.Context, db dbx.DBTX, userID int64) (*models.UserFeature, error) {
	f, err := s.repomanager.Features(db).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrFeatureNotFound
		}
		return nil, fmt.Errorf("error searching feature: %w", err)
	}
	return f, nil
}

func (s *FeatureService) ensureAbsent(ctx context.Context, db dbx.DBTX, userID int64) error {
	_, err := s.find(ctx, db, userID)
	switch {
	case err == nil:
		return common.ErrFeatureAlreadyExists
	case errors.Is(err, common.ErrFeatureNotFound):
		return nil
	default:
		return err
	}
}

func profileRequest(u *models.User, size int, dt vector.DType) embedding.Request {
	return embedding.Request{
		Size:     size,
		DType:    dt,
		Email:    u.Email,
		Nickname: u.Nickname,
		Favorite: u.Favorite,
		Lat:      u.Lat,
		Lng:      u.Lng,
	}
}

func checkShape(size int, dt vector.DType) error {
	if _, err := dt.Width(); err != nil {
		return err
	}
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", common.ErrInvalidVectorLength, size)
	}
	return nil
}

// checkLength enforces len(b) == size × width(dt).
func checkLength(b []byte, size int, dt vector.DType) error {
	want, err := vector.ByteLen(size, dt)
	if err != nil {
		return err
	}
	if len(b) != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %d x %s",
			common.ErrInvalidVectorLength, len(b), want, size, dt)
	}
	return nil
}

func resultVector(res *embedding.Result, size int, dt vector.DType) (*FeatureVector, error) {
	m := res.Vector
	if m == nil {
		var err error
		if m, err = vector.Decode(res.BVector, dt); err != nil {
			return nil, err
		}
	}
	return &FeatureVector{Vector: m, Size: size, DType: dt}, nil
}
