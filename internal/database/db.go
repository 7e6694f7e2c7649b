package database

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Kyz7/formbuilder/internal/config"
	"github.com/Kyz7/formbuilder/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	// Unique violations are matched on the driver message, which names the column.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PasswordResetToken{},
		&models.RevokedToken{},
		&models.Survey{},
		&models.Block{},
		&models.Question{},
		&models.DefaultQuestion{},
		&models.SurveyLink{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := models.EnsureEnum(db); err != nil {
		return fmt.Errorf("failed to create enum types: %w", err)
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migrated successfully!")
	return nil
}

// IsUniqueViolation reports whether err came from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "SQLSTATE 23505")
}

// ViolatedColumn returns true when a unique violation mentions the given column.
// Postgres reports the index name, sqlite the table.column pair.
func ViolatedColumn(err error, column string) bool {
	if !IsUniqueViolation(err) {
		return false
	}
	return strings.Contains(err.Error(), column)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
