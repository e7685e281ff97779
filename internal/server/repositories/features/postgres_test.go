package features

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	insertQ = `(?s)^INSERT\s+INTO\s+user_feature\s*\(user_id,\s*bvector,\s*size,\s*dtype\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at$`
	selectQ = `(?s)^SELECT\s+id,\s*user_id,\s*bvector,\s*size,\s*dtype,\s*created_at,\s*updated_at\s+FROM\s+user_feature\s+WHERE\s+user_id\s*=\s*\$1$`
	updateQ = `(?s)^UPDATE\s+user_feature\s+SET\s+bvector\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1$`
	deleteQ = `(?s)^DELETE\s+FROM\s+user_feature\s+WHERE\s+user_id\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(insertQ).
		WithArgs(int64(1), []byte{0x3c, 0x00}, 1, "float16").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(10), now, now))

	got, err := repo.Create(context.Background(), &models.UserFeature{
		UserID: 1, BVector: []byte{0x3c, 0x00}, Size: 1, DType: "float16",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: UserIDConstraint})

	_, err := repo.Create(context.Background(), &models.UserFeature{UserID: 1, Size: 1, DType: "float16"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err := repo.Create(context.Background(), &models.UserFeature{UserID: 1, Size: 1, DType: "float16"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "db error")
}

func TestGetByUserID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(selectQ).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "bvector", "size", "dtype", "created_at", "updated_at"}).
			AddRow(int64(10), int64(1), []byte{1, 2, 3, 4}, 1, "float32", now, now))

	got, err := repo.GetByUserID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, got.BVector)
	assert.Equal(t, "float32", got.DType)
	assert.Equal(t, 1, got.Size)
}

func TestGetByUserID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQ).WithArgs(int64(2)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUserID(context.Background(), 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateBVector(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(updateQ).WithArgs(int64(10), []byte{9, 9}).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateBVector(context.Background(), 10, []byte{9, 9}))

	mock.ExpectExec(updateQ).WithArgs(int64(11), []byte{9, 9}).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateBVector(context.Background(), 11, []byte{9, 9}), common.ErrorNotFound)

	mock.ExpectExec(updateQ).WillReturnError(errors.New("db down"))
	assert.ErrorContains(t, repo.UpdateBVector(context.Background(), 12, nil), "db down")
}

func TestDeleteByUserID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteByUserID(context.Background(), 1))

	mock.ExpectExec(deleteQ).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteByUserID(context.Background(), 1), common.ErrorNotFound)

	mock.ExpectExec(deleteQ).WithArgs(int64(1)).WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))
	assert.ErrorContains(t, repo.DeleteByUserID(context.Background(), 1), "no count")
}
