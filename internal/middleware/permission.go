package middleware

import (
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const userLocal = "user"

// RoleProtected loads the authenticated user and lets the request through only
// when their stored role is one of roles. It must run after auth.JWTProtected.
// The role is read from the database so a demoted admin loses access before
// their access token expires.
func RoleProtected(db *gorm.DB, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return response.Unauthorized(c, "User not authenticated")
		}

		var user models.User
		if err := db.WithContext(c.UserContext()).First(&user, userID).Error; err != nil {
			return response.Unauthorized(c, "User not found")
		}

		for _, role := range roles {
			if user.Role == role {
				c.Locals(userLocal, &user)
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to perform this action")
	}
}

func AdminOnly(db *gorm.DB) fiber.Handler {
	return RoleProtected(db, models.RoleAdmin)
}

// Authenticated loads the caller for any role.
func Authenticated(db *gorm.DB) fiber.Handler {
	return RoleProtected(db, models.RoleAdmin, models.RoleStandard)
}

// CurrentUser returns the user loaded by RoleProtected.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocal).(*models.User)
	return user
}
