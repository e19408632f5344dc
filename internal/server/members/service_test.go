package members

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tauschring/kontor/internal/logging"
	"github.com/tauschring/kontor/internal/server/models"
	"github.com/tauschring/kontor/internal/server/repositories/repomanager"
	"github.com/tauschring/kontor/internal/server/testdb"
	"github.com/tauschring/kontor/internal/server/trust"
)

type nopLogger struct{}

func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	db := testdb.New(t)
	return NewService(db, repomanager.NewPostgresManager(), nopLogger{}), db
}

var codePattern = regexp.MustCompile(`^[A-Z][0-9]{4}$`)

func TestRegister(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterParams{
		Email:     "anna@example.org",
		FirstName: "Anna",
		LastName:  "Amsel",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	assert.Regexp(t, codePattern, user.UserCode)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSystemAdmin)
	assert.Equal(t, trust.TierT1, user.TrustTier)
	assert.EqualValues(t, 0, user.TotalTimeEarned)

	require.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte("correct horse")))

	// Both accounts exist, zeroed, version 1.
	for _, currency := range []models.Currency{models.CurrencyTime, models.CurrencyRegio} {
		var balanceTime, version int64
		err := db.QueryRow(`SELECT balance_time, version FROM accounts WHERE user_id = $1 AND type = $2`,
			user.ID, currency).Scan(&balanceTime, &version)
		require.NoError(t, err)
		assert.EqualValues(t, 0, balanceTime)
		assert.EqualValues(t, 1, version)
	}
}

func TestRegister_CodesAreUnique(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := range 20 {
		user, err := svc.Register(ctx, RegisterParams{
			Email:    "m@example.org",
			LastName: "Member",
			Password: "pw",
		})
		require.NoError(t, err, "registration %d", i)
		assert.False(t, seen[user.UserCode], "duplicate code %s", user.UserCode)
		seen[user.UserCode] = true
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterParams{
		Email: "anna@example.org", FirstName: "Anna", Password: "secret",
	})
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, user.UserCode, "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, user.UserCode, "wrong")
	require.Error(t, err)

	_, err = svc.Authenticate(ctx, "X9999", "secret")
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestAuthenticate_InactiveMember(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterParams{Email: "a@example.org", Password: "pw"})
	require.NoError(t, err)

	inactive := false
	_, err = svc.AdminUpdate(ctx, user.UserCode, AdminUpdateParams{IsActive: &inactive})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, user.UserCode, "pw")
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestAdminUpdate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterParams{Email: "a@example.org", Password: "pw"})
	require.NoError(t, err)

	// Grant T6, the admin-only tier.
	t6 := trust.TierT6
	updated, err := svc.AdminUpdate(ctx, user.UserCode, AdminUpdateParams{Tier: &t6})
	require.NoError(t, err)
	assert.Equal(t, trust.TierT6, updated.TrustTier)
	assert.True(t, updated.IsActive)

	// Demotion is allowed here and only here.
	t2 := trust.TierT2
	inactive := false
	updated, err = svc.AdminUpdate(ctx, user.UserCode, AdminUpdateParams{Tier: &t2, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, trust.TierT2, updated.TrustTier)
	assert.False(t, updated.IsActive)

	bogus := trust.Tier("T9")
	_, err = svc.AdminUpdate(ctx, user.UserCode, AdminUpdateParams{Tier: &bogus})
	require.ErrorIs(t, err, ErrInvalidTier)

	_, err = svc.AdminUpdate(ctx, "X9999", AdminUpdateParams{Tier: &t2})
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestGetByCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterParams{Email: "a@example.org", Password: "pw"})
	require.NoError(t, err)

	got, err := svc.GetByCode(ctx, user.UserCode)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetByCode(ctx, "X9999")
	require.ErrorIs(t, err, ErrMemberNotFound)
}
