package program

import (
	"time"

	"conference-app/internal/domain/users"
)

// Tutorial room sizes. The room assignment fixes the head count.
const (
	CapacitySmall  = "S"
	CapacityMedium = "M"
	CapacityLarge  = "L"
)

// Seats maps a tutorial capacity class to its head count.
func Seats(capacity string) int {
	switch capacity {
	case CapacitySmall:
		return 10
	case CapacityMedium:
		return 45
	case CapacityLarge:
		return 100
	}
	return 0
}

type TutorialSession struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint
	Owner   users.User

	Title       string
	Description string
	Language    string `gorm:"size:1;default:E"`
	// Capacity is the room size class: S, M or L.
	Capacity  string `gorm:"size:1"`
	Confirmed bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

type SprintSession struct {
	ID      uint `gorm:"primaryKey"`
	OwnerID uint
	Owner   users.User

	Title       string
	Description string
	Confirmed   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TutorialCheckin marks a user's intent to attend a tutorial. The
// auto-increment ID fixes the waitlist order: leaving deletes the row, so a
// rejoin gets a new, larger ID and goes to the back of the queue.
type TutorialCheckin struct {
	ID uint `gorm:"primaryKey"`

	UserID uint `gorm:"uniqueIndex:idx_tutorial_checkin"`
	User   users.User

	TutorialID uint `gorm:"uniqueIndex:idx_tutorial_checkin"`
	Tutorial   TutorialSession
}

type SprintCheckin struct {
	ID uint `gorm:"primaryKey"`

	UserID uint `gorm:"uniqueIndex:idx_sprint_checkin"`
	User   users.User

	SprintID uint `gorm:"uniqueIndex:idx_sprint_checkin"`
	Sprint   SprintSession
}
