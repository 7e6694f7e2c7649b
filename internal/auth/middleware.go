package auth

import (
	"strings"

	"github.com/Kyz7/formbuilder/internal/response"
	"github.com/Kyz7/formbuilder/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// JWTProtected accepts a bearer access token and stores the caller's id and
// role in c.Locals("user_id") and c.Locals("role").
func JWTProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Invalid token format", nil)
		}

		claims, err := utils.ParseJWT(tokenParts[1], utils.AccessToken)
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}
		userID, err := claims.UserID()
		if err != nil {
			return response.Error(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		}

		c.Locals("user_id", userID)
		c.Locals("role", claims.Role)
		return c.Next()
	}
}

// CurrentUserID returns the id stored by JWTProtected.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("user_id").(uint)
	return id, ok && id != 0
}
