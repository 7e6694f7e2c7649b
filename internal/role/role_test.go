package role_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/role"
	"github.com/Kyz7/formbuilder/internal/testutils"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("Error - Missing configuration", func(t *testing.T) {
		db := testutils.TestDB(t)
		_, err := role.SeedAdmin(ctx, db, config.Default())
		assert.ErrorIs(t, err, role.ErrAdminNotConfigured)
	})

	t.Run("Success - Creates an activated admin once", func(t *testing.T) {
		db := testutils.TestDB(t)
		cfg := config.Default()
		cfg.AdminUsername = "root_admin"
		cfg.AdminEmail = "Root@Example.com"
		cfg.AdminPassword = testutils.TestPassword

		created, err := role.SeedAdmin(ctx, db, cfg)
		require.NoError(t, err)
		assert.True(t, created)

		var admin models.User
		require.NoError(t, db.Where("username = ?", "root_admin").First(&admin).Error)
		assert.Equal(t, models.RoleAdmin, admin.Role)
		assert.Equal(t, "root@example.com", admin.Email)
		assert.True(t, admin.IsActivate)
		assert.True(t, utils.CheckPasswordHash(testutils.TestPassword, admin.Password))

		created, err = role.SeedAdmin(ctx, db, cfg)
		require.NoError(t, err)
		assert.False(t, created)

		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Error - Credentials that could not sign in", func(t *testing.T) {
		db := testutils.TestDB(t)
		cfg := config.Default()
		cfg.AdminUsername = "administrator"
		cfg.AdminEmail = "admin@example.com"
		cfg.AdminPassword = "changeme"

		created, err := role.SeedAdmin(ctx, db, cfg)
		require.Error(t, err)
		assert.False(t, created)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		var appErr *apperror.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "username must contain at least one letter and one special character", appErr.Details["username"])
		assert.Contains(t, appErr.Details["password"], "uppercase letter")

		var count int64
		db.Model(&models.User{}).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("Success - Seeded admin signs in", func(t *testing.T) {
		env := testutils.SetupTestApp(t)
		cfg := config.Default()
		cfg.AdminUsername = "root_admin"
		cfg.AdminEmail = "root@example.com"
		cfg.AdminPassword = testutils.TestPassword

		created, err := role.SeedAdmin(ctx, env.DB, cfg)
		require.NoError(t, err)
		require.True(t, created)

		resp, err := testutils.MakeRequest(env.App, "POST", "/auth/signin", map[string]string{
			"username": "root_admin",
			"password": testutils.TestPassword,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Code, resp.Body.String())
		assert.Equal(t, "admin", testutils.AssertSuccess(t, resp).DataMap()["role"])
	})
}

func TestChangeRole(t *testing.T) {
	ctx := context.Background()
	db := testutils.TestDB(t)
	admin := testutils.CreateTestUser(t, db, "admin_user", "admin@example.com", testutils.TestPassword, models.RoleAdmin)
	member := testutils.CreateTestUser(t, db, "member_01", "member@example.com", testutils.TestPassword, models.RoleStandard)

	t.Run("Success - Promote", func(t *testing.T) {
		updated, err := role.ChangeRole(ctx, db, admin.ID, member.ID, models.RoleAdmin)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, updated.Role)
	})

	t.Run("Error - Unknown role", func(t *testing.T) {
		_, err := role.ChangeRole(ctx, db, admin.ID, member.ID, models.Role("owner"))
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("Error - Demoting yourself", func(t *testing.T) {
		_, err := role.ChangeRole(ctx, db, admin.ID, admin.ID, models.RoleStandard)
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("Error - Unknown user", func(t *testing.T) {
		_, err := role.ChangeRole(ctx, db, admin.ID, 999, models.RoleStandard)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})
}

func TestRoleRoutes(t *testing.T) {
	env := testutils.SetupTestApp(t)
	admin := testutils.CreateTestUser(t, env.DB, "admin_user", "admin@example.com", testutils.TestPassword, models.RoleAdmin)
	token := testutils.GetAuthToken(t, admin.ID, models.RoleAdmin)
	member := testutils.CreateTestUser(t, env.DB, "member_01", "member@example.com", testutils.TestPassword, models.RoleStandard)
	memberToken := testutils.GetAuthToken(t, member.ID, models.RoleStandard)

	t.Run("Success - List roles", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/roles", nil, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, []interface{}{"admin", "standard"}, testutils.AssertSuccess(t, resp).DataList())
	})

	t.Run("Success - Promotion takes effect without a new token", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "GET", "/users", nil, memberToken)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.Code)

		resp, err = testutils.MakeRequest(env.App, "PATCH", fmt.Sprintf("/users/%d/role", member.ID), map[string]string{"role": "admin"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
		assert.Equal(t, role.MsgRoleAssigned, testutils.AssertSuccess(t, resp).Message)

		resp, err = testutils.MakeRequest(env.App, "GET", "/users", nil, memberToken)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.Code)
	})

	t.Run("Error - Invalid role", func(t *testing.T) {
		resp, err := testutils.MakeRequest(env.App, "PATCH", fmt.Sprintf("/users/%d/role", member.ID), map[string]string{"role": "owner"}, token)
		assert.NoError(t, err)
		assert.Equal(t, 422, resp.Code)
		result := testutils.AssertError(t, resp, "VALIDATION_ERROR")
		assert.Equal(t, role.MsgInvalidRole, result.Error.Field("role"))
	})
}
