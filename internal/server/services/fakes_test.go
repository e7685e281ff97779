package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/userembed/internal/common"
	"github.com/dmitrijs2005/userembed/internal/dbx"
	"github.com/dmitrijs2005/userembed/internal/server/models"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/features"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/userembed/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeUsersRepo keeps users in memory and counts GetByID calls.
type fakeUsersRepo struct {
	mu      sync.Mutex
	byID    map[int64]*models.User
	nextID  int64
	getByID int

	createErr error
	getErr    error
	listOut   []*models.User
	listArgs  [2]int64
}

func newFakeUsersRepo(us ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[int64]*models.User{}}
	for _, u := range us {
		r.byID[u.ID] = u
		if u.ID > r.nextID {
			r.nextID = u.ID
		}
	}
	return r
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getByID++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmailOrNickname(_ context.Context, email, nickname string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if u.Email == email || u.Nickname == nickname {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) List(_ context.Context, limit int, prev int64) ([]*models.User, error) {
	f.listArgs = [2]int64{int64(limit), prev}
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.listOut, nil
}

type fakeRefreshRepo struct {
	events []string

	consumeOut *models.RefreshToken
	consumeErr error
	consumed   []string

	purgeErr error
	purged   []int64

	createErr error
	created   []int64
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID int64, _ string, _ time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.events = append(f.events, "create")
	f.created = append(f.created, userID)
	return nil
}

func (f *fakeRefreshRepo) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	f.events = append(f.events, "consume")
	f.consumed = append(f.consumed, token)
	return f.consumeOut, nil
}

func (f *fakeRefreshRepo) PurgeExpired(_ context.Context, userID int64) (int64, error) {
	f.events = append(f.events, "purge")
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	f.purged = append(f.purged, userID)
	return 1, nil
}

// fakeFeaturesRepo enforces one row per user like the unique constraint.
type fakeFeaturesRepo struct {
	mu     sync.Mutex
	rows   map[int64]*models.UserFeature
	nextID int64

	// hideOnGet makes GetByUserID report absence, to reach the constraint path.
	hideOnGet bool
	getErr    error
	createErr error
	updateErr error
}

func newFakeFeaturesRepo() *fakeFeaturesRepo {
	return &fakeFeaturesRepo{rows: map[int64]*models.UserFeature{}}
}

func (f *fakeFeaturesRepo) Create(_ context.Context, uf *models.UserFeature) (*models.UserFeature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.rows[uf.UserID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	f.nextID++
	cp := *uf
	cp.ID = f.nextID
	f.rows[uf.UserID] = &cp
	uf.ID = cp.ID
	return uf, nil
}

func (f *fakeFeaturesRepo) GetByUserID(_ context.Context, userID int64) (*models.UserFeature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.rows[userID]
	if !ok || f.hideOnGet {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeFeaturesRepo) UpdateBVector(_ context.Context, id int64, b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, r := range f.rows {
		if r.ID == id {
			r.BVector = b
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeFeaturesRepo) DeleteByUserID(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[userID]; !ok {
		return common.ErrorNotFound
	}
	delete(f.rows, userID)
	return nil
}

func (f *fakeFeaturesRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	f *fakeFeaturesRepo

	// refreshHandles records the handle each RefreshTokens call was bound to.
	refreshHandles []dbx.DBTX
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Features(dbx.DBTX) features.Repository        { return m.f }

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	m.refreshHandles = append(m.refreshHandles, db)
	return m.r
}
