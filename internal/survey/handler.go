package survey

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

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func owner(c *fiber.Ctx) uint {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID
	}
	return 0
}

func (h *Handler) ListSurveys(c *fiber.Ctx) error {
	params := search.FromQuery(c)
	result, err := h.Service.List(c.UserContext(), owner(c), params)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.SuccessWithMeta(c, result.Items, response.CalculateMeta(result.Page, result.Limit, result.Total), "Surveys retrieved successfully")
}

func (h *Handler) GetSurvey(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	survey, err := h.Service.Get(c.UserContext(), owner(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, survey, "Survey retrieved successfully")
}

func (h *Handler) CreateSurvey(c *fiber.Ctx) error {
	var body SurveyInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	survey, outcome, err := h.Service.Create(c.UserContext(), owner(c), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, survey, outcome.Message)
}

func (h *Handler) UpdateSurvey(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	var body SurveyUpdate
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	survey, outcome, err := h.Service.Update(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, survey, outcome.Message)
}

func (h *Handler) PatchSurvey(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	var body SurveyPatch
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	survey, outcome, err := h.Service.Patch(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, survey, outcome.Message)
}

func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	var body struct {
		IsPublished *bool `json:"is_published"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.IsPublished == nil {
		return response.ValidationError(c, map[string]string{"is_published": "is_published is required"})
	}

	survey, outcome, err := h.Service.SetStatus(c.UserContext(), owner(c), id, *body.IsPublished)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, survey, outcome.Message)
}

func (h *Handler) DeleteSurvey(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	if err := h.Service.Delete(c.UserContext(), owner(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, MsgDeleted)
}

func (h *Handler) ListBlocks(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	blocks, err := h.Service.ListBlocks(c.UserContext(), owner(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, blocks, "Blocks retrieved successfully")
}

func (h *Handler) CreateBlock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid survey ID", nil)
	}
	var body BlockInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	block, err := h.Service.CreateBlock(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, block, "Block created successfully")
}

func (h *Handler) GetBlock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid block ID", nil)
	}
	block, err := h.Service.GetBlock(c.UserContext(), owner(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, block, "Block retrieved successfully")
}

func (h *Handler) UpdateBlock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid block ID", nil)
	}
	var body BlockUpdate
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	block, err := h.Service.UpdateBlock(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, block, "Block updated successfully")
}

func (h *Handler) DeleteBlock(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid block ID", nil)
	}
	if err := h.Service.DeleteBlock(c.UserContext(), owner(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Block deleted successfully")
}

func (h *Handler) ListQuestions(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid block ID", nil)
	}
	questions, err := h.Service.ListQuestions(c.UserContext(), owner(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, questions, "Questions retrieved successfully")
}

func (h *Handler) CreateQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid block ID", nil)
	}
	var body QuestionInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	question, err := h.Service.CreateQuestion(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Created(c, question, "Question created successfully")
}

func (h *Handler) GetQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid question ID", nil)
	}
	question, err := h.Service.GetQuestion(c.UserContext(), owner(c), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, question, "Question retrieved successfully")
}

func (h *Handler) UpdateQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid question ID", nil)
	}
	var body QuestionInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	question, err := h.Service.UpdateQuestion(c.UserContext(), owner(c), id, body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, question, "Question updated successfully")
}

func (h *Handler) DeleteQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid question ID", nil)
	}
	if err := h.Service.DeleteQuestion(c.UserContext(), owner(c), id); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Question deleted successfully")
}

func (h *Handler) ListDefaultQuestions(c *fiber.Ctx) error {
	questions, err := h.Service.ListDefaultQuestions(c.UserContext())
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, questions, "Default questions retrieved successfully")
}

func (h *Handler) GetDefaultQuestion(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return response.BadRequest(c, "Invalid question ID", nil)
	}
	question, err := h.Service.GetDefaultQuestion(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, question, "Default question retrieved successfully")
}
