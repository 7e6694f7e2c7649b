package server

import (
	"time"

	"github.com/Kyz7/formbuilder/internal/assignment"
	"github.com/Kyz7/formbuilder/internal/auth"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/notify"
	"github.com/Kyz7/formbuilder/internal/revocation"
	"github.com/Kyz7/formbuilder/internal/role"
	"github.com/Kyz7/formbuilder/internal/survey"
	"github.com/Kyz7/formbuilder/internal/token"
	"github.com/Kyz7/formbuilder/internal/user"
	"github.com/Kyz7/formbuilder/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB       *gorm.DB
	Config   *config.Config
	Revoker  revocation.Revoker
	Notifier notify.Notifier
	Google   auth.UserInfoFetcher
	Now      func() time.Time
}

type handlers struct {
	auth       *auth.Handler
	users      *user.Handler
	roles      *role.Handler
	surveys    *survey.Handler
	assignment *assignment.Handler
}

func New(d Deps) *fiber.App {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Revoker == nil {
		d.Revoker = revocation.NewDBRevoker(d.DB)
	}

	validator := validation.New(d.Config.Limits)
	tokens := token.NewStore(d.DB)
	tokens.Now = d.Now

	authService := &auth.Service{
		DB:        d.DB,
		Tokens:    tokens,
		Revoker:   d.Revoker,
		Notifier:  d.Notifier,
		Validator: validator,
		Config:    d.Config,
		Now:       d.Now,
	}

	h := handlers{
		auth:       auth.NewHandler(authService, d.Google),
		users:      user.NewHandler(user.NewService(d.DB, validator)),
		roles:      role.NewHandler(d.DB),
		surveys:    survey.NewHandler(survey.NewService(d.DB, validator)),
		assignment: assignment.NewHandler(assignment.NewService(d.DB, d.Notifier, d.Config)),
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})

	SetupRoutes(app, d, h)

	return app
}
