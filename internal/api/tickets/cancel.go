package tickets

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/infra/iamport"
	"conference-app/internal/notify"
)

const cancelMailSubject = "Your conference registration has been cancelled"

const cancelMailBody = `Hello,

Your registration payment has been cancelled. Depending on the payment
provider, the card reversal can take a few days to show up.

For any questions, contact the organizing team.
`

// CancelRegistrations cancels a batch of card payments. Items that fail a
// guard or the gateway call are skipped with their reason recorded; the batch
// never aborts early. Returned messages are the queued cancellation notices,
// sent in one go by the caller after the batch completes.
func CancelRegistrations(ctx context.Context, db *gorm.DB, cfg config.TicketingConfig, ids []uint, now time.Time) ([]tickets.Registration, []notify.Message, error) {
	var regs []tickets.Registration
	if err := db.Preload("Option").Where("id IN ?", ids).Find(&regs).Error; err != nil {
		return nil, nil, err
	}

	client, err := iamport.Connect(ctx, cfg.ImpBaseURL, cfg.ImpAPIKey, cfg.ImpAPISecret)
	if err != nil {
		return nil, nil, err
	}

	var messages []notify.Message
	for i := range regs {
		reg := &regs[i]

		if reg.PaymentMethod != tickets.MethodCard {
			reg.CancelReason = "only card payments can be cancelled"
			continue
		}
		if reg.PaymentStatus != tickets.StatusPaid {
			reg.CancelReason = "only paid registrations can be cancelled"
			continue
		}
		if reg.Option == nil || !reg.Option.IsCancelable {
			reg.CancelReason = "this ticket option is not cancelable"
			continue
		}
		if reg.Option.CancelableDate != nil && now.After(*reg.Option.CancelableDate) {
			reg.CancelReason = "the cancellation deadline has passed"
			continue
		}

		if _, err := client.Cancel(ctx, reg.MerchantUID, "Cancel by admin"); err != nil {
			var gerr *iamport.Error
			if errors.As(err, &gerr) {
				reg.CancelStatus = strconv.Itoa(gerr.Code)
				reg.CancelReason = gerr.Message
			} else {
				reg.CancelStatus = "IOError"
				reg.CancelReason = err.Error()
			}
			continue
		}

		// Persist only the two cancellation fields so concurrent edits to the
		// rest of the row are not clobbered.
		reg.Canceled = &now
		reg.PaymentStatus = tickets.StatusCancelled
		err := db.Model(reg).Select("payment_status", "canceled").
			Updates(map[string]interface{}{
				"payment_status": tickets.StatusCancelled,
				"canceled":       now,
			}).Error
		if err != nil {
			return nil, nil, err
		}

		reg.CancelStatus = "CANCELLED"
		messages = append(messages, notify.Message{
			Subject: cancelMailSubject,
			Body:    cancelMailBody,
			From:    config.SMTP_FROM,
			To:      []string{reg.Email},
		})
	}

	return regs, messages, nil
}
