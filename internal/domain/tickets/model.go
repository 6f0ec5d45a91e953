package tickets

import (
	"time"

	"gorm.io/gorm"

	"conference-app/internal/domain/users"
)

// Payment statuses shared by Registration and ManualPayment.
const (
	StatusReady     = "ready"
	StatusPaid      = "paid"
	StatusDeleted   = "deleted"
	StatusCancelled = "cancelled"
)

const (
	MethodCard  = "card"
	MethodVbank = "vbank"
)

// ActiveStatuses are the statuses that hold a seat: a paid registration and a
// ready one (virtual-bank transfer still pending) both count against capacity.
var ActiveStatuses = []string{StatusPaid, StatusReady}

var TopSizes = []string{"small", "medium", "large", "xlarge", "2xlarge", "3xlarge", "4xlarge"}

// Option is a purchasable ticket type (early bird, regular, patron, ...).
type Option struct {
	ID                 uint `gorm:"primaryKey"`
	Name               string
	Description        string
	IsActive           bool
	Price              int
	HasAdditionalPrice bool
	// Total is this option's capacity.
	Total          int `gorm:"default:500"`
	IsCancelable   bool
	CancelableDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SoldOut reports whether active registrations have reached this option's capacity.
func (o *Option) SoldOut(db *gorm.DB) (bool, error) {
	var count int64
	err := db.Model(&Registration{}).
		Where("option_id = ? AND payment_status IN ?", o.ID, ActiveStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count >= int64(o.Total), nil
}

// Registration is one purchase attempt by one user for one option.
type Registration struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint
	User   users.User

	// MerchantUID correlates this record with the gateway transaction.
	MerchantUID string `gorm:"size:32;index"`

	OptionID *uint
	Option   *Option

	Name        string
	Email       string
	Company     string
	PhoneNumber string
	TopSize     string `gorm:"default:large"`

	AdditionalPrice int

	TransactionCode string `gorm:"size:36"`
	PaymentMethod   string `gorm:"size:20;default:card"`
	PaymentStatus   string `gorm:"size:10;default:ready"`
	PaymentMessage  string

	VbankNum    string
	VbankName   string
	VbankDate   string
	VbankHolder string

	CreatedAt time.Time
	UpdatedAt time.Time
	Confirmed *time.Time
	Canceled  *time.Time

	// Batch cancellation outcome, reported per item but never persisted.
	CancelStatus string `gorm:"-" json:"cancel_status,omitempty"`
	CancelReason string `gorm:"-" json:"cancel_reason,omitempty"`
}

// TotalPrice is the amount the gateway must confirm for this registration.
func (r *Registration) TotalPrice() int {
	if r.Option == nil {
		return r.AdditionalPrice
	}
	return r.Option.Price + r.AdditionalPrice
}

// ActiveCount counts registrations currently holding a seat, across all options.
func ActiveCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Registration{}).
		Where("payment_status IN ?", ActiveStatuses).
		Count(&count).Error
	return count, err
}

// HasActiveRegistration reports whether the user already holds a paid or ready
// registration. Enforced by query, not a storage constraint, so a cancelled
// registration does not block buying again.
func HasActiveRegistration(db *gorm.DB, userID uint) (bool, error) {
	var count int64
	err := db.Model(&Registration{}).
		Where("user_id = ? AND payment_status IN ?", userID, ActiveStatuses).
		Count(&count).Error
	return count > 0, err
}
