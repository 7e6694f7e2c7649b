package assignment

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

func callerID(c *fiber.Ctx) uint {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func (h *Handler) Assign(c *fiber.Ctx) error {
	var body AssignInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	result, err := h.Service.Assign(c.UserContext(), callerID(c), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, result, MsgAssigned)
}

func (h *Handler) List(c *fiber.Ctx) error {
	result, err := h.Service.ListForOwner(c.UserContext(), callerID(c), search.FromQuery(c))
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, result.Items, response.CalculateMeta(result.Page, result.Limit, result.Total), "Survey links retrieved successfully")
}

func (h *Handler) Mine(c *fiber.Ctx) error {
	links, err := h.Service.Mine(c.UserContext(), callerID(c))
	if err != nil {
		return response.FromError(c, err)
	}
	if len(links) == 0 {
		return response.Success(c, links, MsgNoneAssigned)
	}
	return response.Success(c, links, "Assigned forms retrieved successfully")
}

func (h *Handler) Export(c *fiber.Ctx) error {
	data, err := h.Service.Export(c.UserContext(), callerID(c))
	if err != nil {
		return response.FromError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="survey_links.xlsx"`)
	return c.Send(data)
}
