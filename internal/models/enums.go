package models

import (
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStandard
}

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
)

func (t QuestionType) Valid() bool {
	switch t {
	case QuestionText, QuestionRadio, QuestionCheckbox:
		return true
	}
	return false
}

// HasChoices reports whether answers are picked from a fixed list.
func (t QuestionType) HasChoices() bool {
	return t == QuestionRadio || t == QuestionCheckbox
}

// EnsureEnum creates the postgres enum types used by the user and question tables.
// Other dialects store the columns as plain text.
func EnsureEnum(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_role') THEN
				CREATE TYPE user_role AS ENUM ('admin', 'standard');
			END IF;
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'question_type') THEN
				CREATE TYPE question_type AS ENUM ('text', 'radio', 'checkbox');
			END IF;
		END
		$$;
	`).Error
}
