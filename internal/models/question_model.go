package models

import (
	"time"

	"gorm.io/datatypes"
)

type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Marks uint   `json:"marks"`
}

type QuestionProperties struct {
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Choices  []Choice `json:"choices,omitempty"`
}

type Question struct {
	ID           uint                                   `gorm:"primaryKey" json:"id"`
	BlockID      *uint                                  `gorm:"index" json:"block_id"`
	Name         string                                 `gorm:"size:255;not null" json:"name"`
	QuestionType QuestionType                           `gorm:"type:question_type;not null" json:"question_type"`
	Properties   datatypes.JSONType[QuestionProperties] `json:"properties"`
	Marks        uint                                   `gorm:"not null;default:0" json:"marks"`
	CreatedAt    time.Time                              `json:"created_at"`
	UpdatedAt    time.Time                              `json:"updated_at"`
}

// DefaultQuestion is a blockless template offered to survey authors.
type DefaultQuestion struct {
	ID           uint                                   `gorm:"primaryKey" json:"id"`
	Name         string                                 `gorm:"size:255;not null;uniqueIndex" json:"name"`
	QuestionType QuestionType                           `gorm:"type:question_type;not null" json:"question_type"`
	Properties   datatypes.JSONType[QuestionProperties] `json:"properties"`
	Marks        uint                                   `gorm:"not null;default:0" json:"marks"`
	CreatedAt    time.Time                              `json:"created_at"`
	UpdatedAt    time.Time                              `json:"updated_at"`
}
