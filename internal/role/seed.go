package role

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Kyz7/formbuilder/internal/apperror"
	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"
	"github.com/Kyz7/formbuilder/internal/utils"
	"github.com/Kyz7/formbuilder/internal/validation"

	"gorm.io/gorm"
)

var ErrAdminNotConfigured = errors.New("ADMIN_USERNAME, ADMIN_EMAIL and ADMIN_PASSWORD must be set")

// SeedAdmin creates the first admin account from configuration. It returns
// false when an account with the same username or email already exists.
// Credentials that sign-in would reject are refused before anything is
// written, so the seeded admin can always sign in.
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config) (bool, error) {
	if cfg.AdminUsername == "" || cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, ErrAdminNotConfigured
	}
	if err := checkAdminCredentials(validation.New(cfg.Limits), cfg); err != nil {
		return false, err
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	var existing models.User
	err := db.WithContext(ctx).
		Where("username = ? OR email = ?", cfg.AdminUsername, email).
		First(&existing).Error
	if err == nil {
		log.Printf("ℹ️  admin %q already exists, skipping", existing.Username)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hashed, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, err
	}

	admin := models.User{
		Username:   cfg.AdminUsername,
		Email:      email,
		FirstName:  "Admin",
		Role:       models.RoleAdmin,
		Password:   hashed,
		IsActivate: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, err
	}
	log.Printf("✅ admin %q seeded", admin.Username)
	return true, nil
}

func checkAdminCredentials(v *validation.Validator, cfg *config.Config) error {
	problems := map[string]string{}
	if msg := v.UsernameProblem(cfg.AdminUsername); msg != "" {
		problems["username"] = msg
	}
	if msg := v.PasswordProblem(cfg.AdminPassword); msg != "" {
		problems["password"] = msg
	}
	if len(problems) == 0 {
		return nil
	}
	return apperror.Validation("ADMIN_USERNAME or ADMIN_PASSWORD would be rejected at sign-in", problems)
}
