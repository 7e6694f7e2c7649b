package role

import (
	"github.com/Kyz7/formbuilder/internal/middleware"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/response"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type Handler struct {
	DB *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{DB: db}
}

func (h *Handler) ListRoles(c *fiber.Ctx) error {
	return response.Success(c, All, "Roles retrieved successfully")
}

func (h *Handler) AssignRole(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	var body struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	actor := middleware.CurrentUser(c)
	user, err := ChangeRole(c.UserContext(), h.DB, actor.ID, uint(id), body.Role)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user, MsgRoleAssigned)
}
