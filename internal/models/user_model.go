package models

import (
	"time"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"size:50" json:"first_name"`
	LastName   string    `gorm:"size:50" json:"last_name"`
	Contact    string    `gorm:"size:20" json:"contact"`
	Role       Role      `gorm:"type:user_role;not null;default:'standard'" json:"role"`
	Password   string    `gorm:"size:255" json:"-"`
	IsActivate bool      `gorm:"not null;default:false" json:"is_activate"`
	Token      string    `gorm:"type:text" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasPassword is false until the user redeems their set-password link.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
