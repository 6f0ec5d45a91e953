// Package jobs holds invoked batch work. Nothing here runs as a daemon.
package jobs

import (
	"context"
	"time"

	"gorm.io/gorm"

	"conference-app/internal/domain/tickets"
	"conference-app/internal/infra/iamport"
)

// Mismatch is one registration/gateway disagreement found by Reconcile.
type Mismatch struct {
	MerchantUID string `json:"merchant_uid"`
	Email       string `json:"email"`
}

// Report is the outcome of a reconciliation run. It reports, never corrects.
type Report struct {
	// RegisteredNotPaid: locally paid, but the gateway has no paid record.
	RegisteredNotPaid []Mismatch `json:"registered_not_paid"`
	// PaidNotRegistered: the gateway holds a paid charge we have no paid
	// registration for (amount-mismatch strays end up here).
	PaidNotRegistered []Mismatch `json:"paid_not_registered"`
}

// Reconcile cross-checks local paid registrations against the gateway's
// authoritative paid list for the given period.
func Reconcile(ctx context.Context, db *gorm.DB, client *iamport.Client, since, until time.Time) (*Report, error) {
	var regs []tickets.Registration
	err := db.Select("merchant_uid", "email").
		Where("payment_status = ?", tickets.StatusPaid).
		Order("id").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}

	local := make(map[string]string, len(regs))
	for i := range regs {
		local[regs[i].MerchantUID] = regs[i].Email
	}

	paid, err := client.GetPaidList(ctx, since, until)
	if err != nil {
		return nil, err
	}
	remote := make(map[string]string, len(paid))
	for _, entry := range paid {
		remote[entry.MerchantUID] = entry.BuyerEmail
	}

	report := &Report{}
	for i := range regs {
		if _, ok := remote[regs[i].MerchantUID]; !ok {
			report.RegisteredNotPaid = append(report.RegisteredNotPaid, Mismatch{
				MerchantUID: regs[i].MerchantUID,
				Email:       regs[i].Email,
			})
		}
	}
	for _, entry := range paid {
		if _, ok := local[entry.MerchantUID]; !ok {
			report.PaidNotRegistered = append(report.PaidNotRegistered, Mismatch{
				MerchantUID: entry.MerchantUID,
				Email:       entry.BuyerEmail,
			})
		}
	}

	return report, nil
}
