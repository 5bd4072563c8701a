package models

import (
	"time"
)

// DefaultRole is assigned to every account on registration.
const DefaultRole = "security_officer"

// User is an authenticated account. Role is free text.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	FullName  string    `json:"fullName" gorm:"not null"`
	Role      string    `json:"role" gorm:"not null;default:'security_officer'"`
	AvatarURL *string   `json:"avatarUrl"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// AccountSummary is the only account projection exposed alongside incidents
// and timeline entries.
type AccountSummary struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

func (u User) Summary() AccountSummary {
	return AccountSummary{FullName: u.FullName, Email: u.Email}
}
