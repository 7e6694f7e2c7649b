package server

import (
	"time"

	"github.com/Kyz7/formbuilder/internal/auth"
	"github.com/Kyz7/formbuilder/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func SetupRoutes(app *fiber.App, d Deps, h handlers) {
	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Form builder API is running",
		})
	})

	admin := middleware.AdminOnly(d.DB)
	anyone := middleware.Authenticated(d.DB)

	// ==========================================
	// AUTH
	// ==========================================
	authGroup := app.Group("/auth")
	if d.Config.AuthRateLimit > 0 {
		authGroup.Use(limiter.New(limiter.Config{
			Max:        d.Config.AuthRateLimit,
			Expiration: 1 * time.Minute,
		}))
	}
	authGroup.Post("/signup", auth.JWTProtected(), admin, h.auth.Signup)
	authGroup.Post("/resend-set-password", auth.JWTProtected(), admin, h.auth.ResendSetPassword)
	authGroup.Post("/set-password/:token", h.auth.SetPassword)
	authGroup.Post("/forgot-password", h.auth.ForgotPassword)
	authGroup.Post("/reset-password/:token", h.auth.ResetPassword)
	authGroup.Post("/signin", h.auth.SignIn)
	authGroup.Post("/refresh", h.auth.Refresh)
	authGroup.Post("/signout", h.auth.SignOut)
	authGroup.Get("/google/login", h.auth.GoogleLogin)
	authGroup.Get("/google/callback", h.auth.GoogleCallback)

	// ==========================================
	// USERS (Admin only) & PROFILE
	// ==========================================
	userGroup := app.Group("/users", auth.JWTProtected(), admin)
	userGroup.Get("/", h.users.ListUsers)
	userGroup.Get("/logged-in", h.users.ListLoggedIn)
	userGroup.Get("/:id", h.users.GetUser)
	userGroup.Delete("/:id", h.users.DeleteUser)
	userGroup.Patch("/:id/role", h.roles.AssignRole)

	app.Get("/roles", auth.JWTProtected(), admin, h.roles.ListRoles)

	profile := app.Group("/profile", auth.JWTProtected(), anyone)
	profile.Get("/", h.users.GetProfile)
	profile.Put("/", h.users.UpdateProfile)
	profile.Patch("/", h.users.PatchProfile)

	// ==========================================
	// SURVEY AUTHORING (Admin, owner scoped)
	// ==========================================
	surveys := app.Group("/surveys", auth.JWTProtected(), admin)
	surveys.Get("/", h.surveys.ListSurveys)
	surveys.Post("/", h.surveys.CreateSurvey)
	surveys.Get("/:id", h.surveys.GetSurvey)
	surveys.Put("/:id", h.surveys.UpdateSurvey)
	surveys.Patch("/:id", h.surveys.PatchSurvey)
	surveys.Delete("/:id", h.surveys.DeleteSurvey)
	surveys.Patch("/:id/status", h.surveys.UpdateStatus)
	surveys.Get("/:id/blocks", h.surveys.ListBlocks)
	surveys.Post("/:id/blocks", h.surveys.CreateBlock)

	blocks := app.Group("/blocks", auth.JWTProtected(), admin)
	blocks.Get("/:id", h.surveys.GetBlock)
	blocks.Put("/:id", h.surveys.UpdateBlock)
	blocks.Delete("/:id", h.surveys.DeleteBlock)
	blocks.Get("/:id/questions", h.surveys.ListQuestions)
	blocks.Post("/:id/questions", h.surveys.CreateQuestion)

	questions := app.Group("/questions", auth.JWTProtected(), admin)
	questions.Get("/:id", h.surveys.GetQuestion)
	questions.Put("/:id", h.surveys.UpdateQuestion)
	questions.Delete("/:id", h.surveys.DeleteQuestion)

	defaults := app.Group("/default-questions", auth.JWTProtected(), anyone)
	defaults.Get("/", h.surveys.ListDefaultQuestions)
	defaults.Get("/:id", h.surveys.GetDefaultQuestion)

	// ==========================================
	// SURVEY LINKS
	// ==========================================
	links := app.Group("/survey-links", auth.JWTProtected())
	links.Get("/mine", anyone, h.assignment.Mine)
	links.Get("/export", admin, h.assignment.Export)
	links.Get("/", admin, h.assignment.List)
	links.Post("/", admin, h.assignment.Assign)
}
