package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkravets/dashboard/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))
	return db
}

func seedUser(t *testing.T, r *UserRepo) *models.User {
	t.Helper()

	user := &models.User{
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: "hash",
		Role:         "USER",
		IsActive:     true,
	}
	require.NoError(t, r.Create(context.Background(), user))
	return user
}

func TestUserRepo_Create_AssignsID(t *testing.T) {
	t.Parallel()

	r := &UserRepo{DB: newTestDB(t)}
	user := seedUser(t, r)
	assert.NotEqual(t, uuid.Nil, user.ID)
}

func TestUserRepo_Create_ReportsCollidingField(t *testing.T) {
	t.Parallel()

	r := &UserRepo{DB: newTestDB(t)}
	seedUser(t, r)
	ctx := context.Background()

	err := r.Create(ctx, &models.User{Email: "a@x.com", Username: "bob", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	err = r.Create(ctx, &models.User{Email: "b@x.com", Username: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepo_GetByEmail_NotFound(t *testing.T) {
	t.Parallel()

	r := &UserRepo{DB: newTestDB(t)}

	_, err := r.GetByEmail(context.Background(), "ghost@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_UpdatePassword(t *testing.T) {
	t.Parallel()

	r := &UserRepo{DB: newTestDB(t)}
	user := seedUser(t, r)
	ctx := context.Background()

	require.NoError(t, r.UpdatePassword(ctx, user.ID, "newhash"))
	got, err := r.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", got.PasswordHash)

	assert.ErrorIs(t, r.UpdatePassword(ctx, uuid.New(), "x"), ErrNotFound)
}

func TestLedgerRepo_DeleteByUserAndExpired(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	users := &UserRepo{DB: db}
	ledger := &LedgerRepo{DB: db}
	user := seedUser(t, users)
	ctx := context.Background()

	require.NoError(t, ledger.Insert(ctx, &models.RefreshToken{
		JTI: uuid.NewString(), TokenHash: "h1", UserID: user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, ledger.Insert(ctx, &models.RefreshToken{
		JTI: uuid.NewString(), TokenHash: "h2", UserID: user.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	pruned, err := ledger.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, pruned)

	require.NoError(t, ledger.DeleteByUser(ctx, user.ID))
	count, err := ledger.CountByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// Idempotent on an already-empty ledger.
	require.NoError(t, ledger.DeleteByUser(ctx, user.ID))
}
