package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jewelpalace/storefront/internal/models"
)

func TestSeedDemoData(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := SeedDemoData(ctx, env.products, env.users)
	require.NoError(t, err)
	assert.Equal(t, 4, result.ProductsCreated)
	assert.Equal(t, DemoAdminEmail, result.AdminEmail)

	products, err := env.products.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	for i, want := range []string{"prod_demo_1", "prod_demo_2", "prod_demo_3", "prod_demo_4"} {
		assert.Equal(t, want, products[i].ID)
		assert.True(t, products[i].Enabled)
	}

	admin, _, err := env.users.Login(ctx, models.LoginRequest{Email: DemoAdminEmail, Password: DemoAdminPassword})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	user, _, err := env.users.Login(ctx, models.LoginRequest{Email: DemoUserEmail, Password: DemoUserPassword})
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
}

func TestSeedDemoDataIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := SeedDemoData(ctx, env.products, env.users)
	require.NoError(t, err)
	first, err := env.products.GetProduct(ctx, "prod_demo_1")
	require.NoError(t, err)

	_, err = SeedDemoData(ctx, env.products, env.users)
	require.NoError(t, err)

	products, err := env.products.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)

	again, err := env.products.GetProduct(ctx, "prod_demo_1")
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, again.CreatedAt)

	users, err := listRecords[models.User](ctx, env.store, "user")
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestSeedIfEmpty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seeded, err := SeedIfEmpty(ctx, env.products, env.users)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = SeedIfEmpty(ctx, env.products, env.users)
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestSeedDemoDataKeepsExistingAccounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.CreateAdmin(ctx, models.RegisterRequest{Email: DemoAdminEmail, Password: "S3cret-rotated", Name: "Owner"})
	require.NoError(t, err)
	_, _, err = env.users.Register(ctx, models.RegisterRequest{Email: DemoUserEmail, Password: "my-own-pass"})
	require.NoError(t, err)

	_, err = SeedDemoData(ctx, env.products, env.users)
	require.NoError(t, err)

	admin, _, err := env.users.Login(ctx, models.LoginRequest{Email: DemoAdminEmail, Password: "S3cret-rotated"})
	require.NoError(t, err)
	assert.Equal(t, "Owner", admin.Name)
	assert.True(t, admin.IsAdmin)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: DemoAdminEmail, Password: DemoAdminPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: DemoUserEmail, Password: "my-own-pass"})
	require.NoError(t, err)
	_, _, err = env.users.Login(ctx, models.LoginRequest{Email: DemoUserEmail, Password: DemoUserPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
