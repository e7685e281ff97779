package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackAndRethrowOnPanic(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	require.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			panic("kaboom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.EqualError(t, err, "no conn")
	require.False(t, called)
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error { return nil })
	require.EqualError(t, err, "commit failed")
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "user_feature_user_id_key"}
	wrapped := fmt.Errorf("db error: %w", pgErr)

	require.True(t, IsUniqueViolation(wrapped, ""))
	require.True(t, IsUniqueViolation(wrapped, "user_feature_user_id_key"))
	require.False(t, IsUniqueViolation(wrapped, "users_email_key"))
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	require.False(t, IsUniqueViolation(errors.New("plain"), ""))
}
