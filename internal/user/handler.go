package user

import (
	"github.com/Kyz7/formbuilder/internal/middleware"
	"github.com/Kyz7/formbuilder/internal/response"
	"github.com/Kyz7/formbuilder/internal/search"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) ListUsers(c *fiber.Ctx) error {
	result, err := h.Service.List(c.UserContext(), search.FromQuery(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, result.Items, response.CalculateMeta(result.Page, result.Limit, result.Total), "Users retrieved successfully")
}

func (h *Handler) ListLoggedIn(c *fiber.Ctx) error {
	result, err := h.Service.LoggedIn(c.UserContext(), search.FromQuery(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, result.Items, response.CalculateMeta(result.Page, result.Limit, result.Total), "Users retrieved successfully")
}

func (h *Handler) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	user, err := h.Service.Get(c.UserContext(), uint(id))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user, "User retrieved successfully")
}

func (h *Handler) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid user ID", nil)
	}

	actor := middleware.CurrentUser(c)
	if err := h.Service.Delete(c.UserContext(), actor.ID, uint(id)); err != nil {
		return response.FromError(c, err)
	}
	return response.NoContent(c)
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	return response.Success(c, middleware.CurrentUser(c), "Profile retrieved successfully")
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var body ProfileInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	user, err := h.Service.UpdateProfile(c.UserContext(), middleware.CurrentUser(c).ID, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user, "Profile updated successfully")
}

func (h *Handler) PatchProfile(c *fiber.Ctx) error {
	var body ProfilePatch
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	user, err := h.Service.PatchProfile(c.UserContext(), middleware.CurrentUser(c).ID, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, user, "Profile updated successfully")
}
