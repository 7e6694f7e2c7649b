package models

import (
	"time"
)

type Survey struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_survey_owner_name" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedByID uint      `gorm:"not null;index;uniqueIndex:idx_survey_owner_name" json:"created_by"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`
	Blocks      []Block   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"blocks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Block struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:100;not null;uniqueIndex:idx_block_survey_name" json:"name"`
	SurveyID  uint       `gorm:"not null;index;uniqueIndex:idx_block_survey_name" json:"survey_id"`
	Questions []Question `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SurveyLink records that a survey was assigned to a user.
type SurveyLink struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SurveyID    uint      `gorm:"not null;index" json:"survey_id"`
	Survey      *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"survey,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	IsSubmitted bool      `gorm:"not null;default:false" json:"is_submitted"`
	AssignedAt  time.Time `gorm:"autoCreateTime" json:"assigned_at"`
}
