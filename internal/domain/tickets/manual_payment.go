package tickets

import (
	"time"

	"conference-app/internal/domain/users"
)

// ManualPayment is an ad-hoc charge provisioned by staff for a single user
// (sponsor invoices, late patron tickets). No option inventory applies; the
// user pays the pre-set price by card.
type ManualPayment struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint
	User   users.User

	Title       string
	Description string
	Price       int

	MerchantUID     string `gorm:"size:32;index"`
	TransactionCode string `gorm:"size:36"`
	ImpUID          string `gorm:"size:36"`

	PaymentMethod  string `gorm:"size:20;default:card"`
	PaymentStatus  string `gorm:"size:10;default:ready"`
	PaymentMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
	Confirmed *time.Time
}
