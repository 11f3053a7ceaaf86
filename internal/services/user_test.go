package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/store"
)

func TestRegisterDerivesAdminFromEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin, session, err := env.users.Register(ctx, models.RegisterRequest{Email: "admin@x.com", Password: "pw", Name: "Boss"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.True(t, session.User.UserMetadata.IsAdmin)
	assert.Equal(t, "bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)
	assert.NotEmpty(t, session.AccessToken)

	jane, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, jane.IsAdmin)
	assert.Equal(t, "jane", jane.Name)
}

func TestRegisterWithoutEmailPolicy(t *testing.T) {
	st := store.NewMemoryStore()
	cfg := testIdentity()
	cfg.AdminByEmail = false
	users := NewUserService(st, newTestMetrics(t), cfg)

	u, _, err := users.Register(context.Background(), models.RegisterRequest{Email: "admin@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)

	boss, err := users.CreateAdmin(context.Background(), models.RegisterRequest{Email: "boss@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, boss.IsAdmin)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "Jane@X.com", Password: "pw"})
	require.NoError(t, err)

	_, _, err = env.users.Register(ctx, models.RegisterRequest{Email: " jane@x.COM ", Password: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, _, err = env.users.Register(ctx, models.RegisterRequest{Email: "nope", Password: "pw"})
	requireValidation(t, err, "email")

	_, _, err = env.users.Register(ctx, models.RegisterRequest{Email: "a@b.com"})
	requireValidation(t, err, "password")
}

func TestPasswordIsNeverStoredInClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, session, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "s3cret"})
	require.NoError(t, err)

	raw, err := env.store.Get(ctx, store.KindUser, u.ID)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "s3cret")

	rendered, err := json.Marshal(session)
	require.NoError(t, err)
	assert.NotContains(t, string(rendered), "passwordHash")
	assert.NotContains(t, string(rendered), u.PasswordHash)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)

	u, session, err := env.users.Login(ctx, models.LoginRequest{Email: "JANE@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)

	current, err := env.users.CurrentUser(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, current.ID)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: "jane@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: "ghost@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.users.Login(ctx, models.LoginRequest{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLaxLoginIssuesClaimsOnlyUser(t *testing.T) {
	cfg := testIdentity()
	cfg.LaxLogin = true
	users := NewUserService(store.NewMemoryStore(), newTestMetrics(t), cfg)
	ctx := context.Background()

	u, session, err := users.Login(ctx, models.LoginRequest{Email: "someadmin@shop.com", Password: "anything"})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	again, _, err := users.Login(ctx, models.LoginRequest{Email: "someadmin@shop.com", Password: "else"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	current, err := users.CurrentUser(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, current.ID)
	assert.True(t, current.IsAdmin)
}

func TestCurrentUserRejectsForeignAndBrokenTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg := testIdentity()
	cfg.Secret = []byte("another-secret")
	other := NewUserService(env.store, newTestMetrics(t), cfg)

	_, session, err := other.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = env.users.CurrentUser(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.CurrentUser(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.CurrentUser(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCurrentUserRejectsExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, session, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)

	env.users.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	_, stale, err := env.users.Login(ctx, models.LoginRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = env.users.CurrentUser(ctx, stale.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.CurrentUser(ctx, session.AccessToken)
	assert.NoError(t, err)
}

func TestCurrentUserForDeletedAccountInStrictMode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, session, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, env.store.Delete(ctx, store.KindUser, u.ID))

	_, err = env.users.CurrentUser(ctx, session.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestIsAdminEmail(t *testing.T) {
	assert.True(t, IsAdminEmail("ADMIN@jewelpalace.com"))
	assert.True(t, IsAdminEmail("shopadmins@x.com"))
	assert.False(t, IsAdminEmail("user@jewelpalace.com"))
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	jane, session, err := env.users.Register(ctx, models.RegisterRequest{Email: "jane@x.com", Password: "secret1", Name: "Jane"})
	require.NoError(t, err)

	name, phone := "  Jane Doe ", "+91 98765 43210"
	updated, err := env.users.UpdateProfile(ctx, jane.ID, models.UpdateProfileRequest{
		Email:    " Jane.Doe@X.com ",
		Password: "newpass",
		Data:     models.ProfileData{Name: &name, Phone: &phone},
	})
	require.NoError(t, err)
	assert.Equal(t, jane.ID, updated.ID)
	assert.Equal(t, "jane.doe@x.com", updated.Email)
	assert.Equal(t, "Jane Doe", updated.Name)
	assert.Equal(t, phone, ToAuthUser(updated).UserMetadata.Phone)
	assert.False(t, updated.IsAdmin)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: "jane@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: "jane.doe@x.com", Password: "newpass"})
	require.NoError(t, err)

	// the existing session follows the account by id
	current, err := env.users.CurrentUser(ctx, session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@x.com", current.Email)
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "ravi@x.com", Password: "secret1", Name: "Ravi"})
	require.NoError(t, err)

	blank := ""
	updated, err := env.users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Data: models.ProfileData{Name: &blank}})
	require.NoError(t, err)
	assert.Equal(t, "ravi@x.com", updated.Email)
	assert.Equal(t, "Ravi", updated.Name)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: "ravi@x.com", Password: "secret1"})
	require.NoError(t, err)
}

func TestUpdateProfileRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "taken@x.com", Password: "secret1"})
	require.NoError(t, err)
	u, _, err := env.users.Register(ctx, models.RegisterRequest{Email: "mina@x.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Password: "12345"})
	requireValidation(t, err, "password")

	_, err = env.users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Email: "not-an-email"})
	requireValidation(t, err, "email")

	_, err = env.users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Email: "TAKEN@x.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	// an address containing "admin" does not grant the role after sign-up
	promoted, err := env.users.UpdateProfile(ctx, u.ID, models.UpdateProfileRequest{Email: "admin.mina@x.com"})
	require.NoError(t, err)
	assert.False(t, promoted.IsAdmin)

	_, err = env.users.UpdateProfile(ctx, "user_missing", models.UpdateProfileRequest{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
