package models

import (
	"time"
)

type TokenPurpose string

const (
	PurposeSetPassword   TokenPurpose = "set_password"
	PurposeResetPassword TokenPurpose = "reset_password"
)

// PasswordResetToken backs both the set-password and forgot-password links.
// A user has at most one row; reissuing replaces it, purpose included.
type PasswordResetToken struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"not null;uniqueIndex"`
	User      *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	TokenHash string       `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Purpose   TokenPurpose `gorm:"size:20;not null"`
	CreatedAt time.Time    `gorm:"not null"`
	UpdatedAt time.Time    `gorm:"not null"`
}

// RevokedToken blacklists a refresh token by jti until it would have expired anyway.
type RevokedToken struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	JTI       string    `gorm:"size:64;not null;uniqueIndex" json:"jti"`
	UserID    uint      `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
