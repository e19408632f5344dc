package users_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tauschring/kontor/internal/common"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/repositories/users"
	"github.com/tauschring/kontor/internal/server/testdb"
	"github.com/tauschring/kontor/internal/server/trust"
)

func TestCreateAndGet(t *testing.T) {
	db := testdb.New(t)
	repo := users.NewPostgresRepository(db)
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	user := &models.User{
		ID:           uuid.New(),
		UserCode:     "K4711",
		Email:        "k@example.org",
		FirstName:    "Karla",
		LastName:     "Krause",
		PasswordHash: "hash",
		IsActive:     true,
		TrustTier:    trust.TierT1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, user))

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "K4711", byID.UserCode)
	assert.Equal(t, "Karla Krause", byID.FullName())

	byCode, err := repo.GetByCode(ctx, "K4711")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byCode.ID)

	_, err = repo.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.GetByCode(ctx, "Z0000")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateTrust(t *testing.T) {
	db := testdb.New(t)
	repo := users.NewPostgresRepository(db)
	ctx := context.Background()

	user := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	now := time.Now().UTC()

	require.NoError(t, repo.UpdateTrust(ctx, user.ID, 950, trust.TierT3, now))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 950, reloaded.TotalTimeEarned)
	assert.Equal(t, trust.TierT3, reloaded.TrustTier)

	require.ErrorIs(t, repo.UpdateTrust(ctx, uuid.New(), 1, trust.TierT1, now), common.ErrNotFound)
}

func TestUpdateAdminFields(t *testing.T) {
	db := testdb.New(t)
	repo := users.NewPostgresRepository(db)
	ctx := context.Background()

	user := testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	now := time.Now().UTC()

	t.Run("tier only", func(t *testing.T) {
		tier := trust.TierT4
		require.NoError(t, repo.UpdateAdminFields(ctx, user.ID, &tier, nil, now))

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, trust.TierT4, reloaded.TrustTier)
		assert.True(t, reloaded.IsActive)
	})

	t.Run("active only", func(t *testing.T) {
		inactive := false
		require.NoError(t, repo.UpdateAdminFields(ctx, user.ID, nil, &inactive, now))

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, reloaded.IsActive)
		assert.Equal(t, trust.TierT4, reloaded.TrustTier)
	})

	t.Run("both", func(t *testing.T) {
		tier := trust.TierT2
		active := true
		require.NoError(t, repo.UpdateAdminFields(ctx, user.ID, &tier, &active, now))

		reloaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, trust.TierT2, reloaded.TrustTier)
		assert.True(t, reloaded.IsActive)
	})

	t.Run("missing user", func(t *testing.T) {
		tier := trust.TierT2
		require.ErrorIs(t, repo.UpdateAdminFields(ctx, uuid.New(), &tier, nil, now), common.ErrNotFound)
	})
}

func TestListActiveMembersAndCounts(t *testing.T) {
	db := testdb.New(t)
	repo := users.NewPostgresRepository(db)
	ctx := context.Background()

	testdb.SeedUser(t, db, "B2002", "Bruno", "Bergmann", testdb.SeedUserOpts{})
	testdb.SeedUser(t, db, "A1001", "Anna", "Amsel", testdb.SeedUserOpts{})
	testdb.SeedUser(t, db, "C3003", "Carla", "Conrad", testdb.SeedUserOpts{Inactive: true})
	testdb.SeedUser(t, db, "S0000", "System", "Sink", testdb.SeedUserOpts{IsSystemAdmin: true})

	members, err := repo.ListActiveMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	// Sorted by user code; admins and inactive members excluded.
	assert.Equal(t, "A1001", members[0].UserCode)
	assert.Equal(t, "B2002", members[1].UserCode)

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)

	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, active)
}
