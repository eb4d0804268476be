package models

import (
	"strings"
	"time"
)

// User represents an account holder. Password is empty for users that only
// sign in through a federated identity provider.
type User struct {
	Base
	Email               string        `gorm:"uniqueIndex;not null" json:"email"`
	Password            string        `json:"-"`
	DisplayName         string        `json:"display_name"`
	GoogleSubject       *string       `gorm:"uniqueIndex" json:"-"`
	IsActive            bool          `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string        `gorm:"size:64" json:"-"`
	FailedLoginAttempts int           `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time    `json:"-"`
	LastLoginAt         *time.Time    `json:"last_login_at,omitempty"`
	Categories          []Category    `gorm:"foreignKey:UserID" json:"categories,omitempty"`
	Transactions        []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// Name returns the display name, falling back to the local part of the email
// and then to "User".
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	if u.Email != "" {
		return u.Email
	}
	return "User"
}
