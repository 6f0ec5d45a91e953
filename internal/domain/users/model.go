package users

import (
	"strings"
	"time"
)

type User struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"not null;uniqueIndex:idx_users_email"`
	Name  string
	// Image is the profile picture reference (URL or storage key).
	Image string
	Role  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName falls back to the local part of the email address
// when the profile name was never filled in.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
