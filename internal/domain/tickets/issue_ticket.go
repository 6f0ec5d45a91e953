package tickets

import (
	"time"

	"conference-app/internal/domain/users"
)

// IssueTicket records that a physical ticket was printed and handed out for a
// registration. Append-only audit trail; issuing does not change payment state.
type IssueTicket struct {
	ID uint `gorm:"primaryKey"`

	RegistrationID uint
	Registration   Registration

	IssuerID uint
	Issuer   users.User

	IssueDate time.Time
}
