package tickets

import (
	"time"

	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/internal/domain/tickets"
)

// IsTicketOpen reports whether now falls inside the registration window.
// Both bounds are inclusive. An unset window means registration is closed.
func IsTicketOpen(now time.Time, cfg config.TicketingConfig) bool {
	if cfg.RegistrationOpen.IsZero() || cfg.RegistrationClose.IsZero() {
		return false
	}
	return !now.Before(cfg.RegistrationOpen) && !now.After(cfg.RegistrationClose)
}

// RemainingTicketCount is the global cap minus every active registration,
// across all options. It gates purchases independently of per-option capacity.
func RemainingTicketCount(db *gorm.DB, cfg config.TicketingConfig) (int, error) {
	active, err := tickets.ActiveCount(db)
	if err != nil {
		return 0, err
	}
	return cfg.TotalTicket - int(active), nil
}
