package auth

import (
	"github.com/Kyz7/formbuilder/internal/response"

	"github.com/gofiber/fiber/v2"
)

const (
	MsgAccountCreated   = "Account created successfully"
	MsgLinkSendFailed   = "Link send failed"
	MsgSetPasswordSent  = "A set password email has been send to this email"
	MsgPasswordSet      = "Password set successfully"
	MsgResetSent        = "Password reset email sent"
	MsgPasswordResetted = "Password reset successful"
)

type Handler struct {
	Service *Service
	Google  UserInfoFetcher
	states  *stateStore
}

func NewHandler(svc *Service, google UserInfoFetcher) *Handler {
	return &Handler{Service: svc, Google: google, states: newStateStore()}
}

type emailBody struct {
	Email string `json:"email"`
}

type refreshBody struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	var body SignupInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	user, delivery, err := h.Service.Signup(c.UserContext(), body)
	if err != nil {
		return response.FromError(c, err)
	}

	message := MsgAccountCreated
	if delivery.Failed() {
		message = MsgAccountCreated + ", " + MsgLinkSendFailed
	}
	return response.Created(c, fiber.Map{
		"user":         user,
		"email_sent":   delivery.EmailSent,
		"email_queued": delivery.EmailQueued,
	}, message)
}

func (h *Handler) ResendSetPassword(c *fiber.Ctx) error {
	var body emailBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	delivery, err := h.Service.ResendSetPasswordLink(c.UserContext(), body.Email)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, delivery, sentMessage(delivery, MsgSetPasswordSent))
}

func (h *Handler) SetPassword(c *fiber.Ctx) error {
	var body SetPasswordInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if err := h.Service.SetPassword(c.UserContext(), c.Params("token"), body); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, MsgPasswordSet)
}

func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var body emailBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	delivery, err := h.Service.ForgotPassword(c.UserContext(), body.Email)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, delivery, sentMessage(delivery, MsgResetSent))
}

func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var body ResetPasswordInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if err := h.Service.ResetPassword(c.UserContext(), c.Params("token"), body); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, MsgPasswordResetted)
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	var body SignInInput
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	result, err := h.Service.SignIn(c.UserContext(), body)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, result, "Login successful")
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	var body refreshBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Refresh == "" {
		return response.ValidationError(c, map[string]string{"refresh": "refresh is required"})
	}

	access, err := h.Service.Refresh(c.UserContext(), body.Refresh)
	if err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, fiber.Map{"access": access}, "Token refreshed successfully")
}

func (h *Handler) SignOut(c *fiber.Ctx) error {
	var body refreshBody
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}
	if body.Refresh == "" {
		return response.ValidationError(c, map[string]string{"refresh": "refresh is required"})
	}

	if err := h.Service.SignOut(c.UserContext(), body.Refresh); err != nil {
		return response.FromError(c, err)
	}
	return response.Success(c, nil, "Logout successful")
}

func sentMessage(d Delivery, ok string) string {
	if d.Failed() {
		return MsgLinkSendFailed
	}
	return ok
}
