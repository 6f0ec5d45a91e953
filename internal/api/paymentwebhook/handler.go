// Package paymentwebhook receives the gateway's server-to-server payment
// notifications. The notification body only locates the registration; the
// status it claims is never applied. The authoritative status always comes
// from re-querying the gateway.
package paymentwebhook

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/database"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/infra/iamport"
)

var ErrUnknownMerchantUID = errors.New("no registration for merchant_uid")

// notification is the webhook form payload. ClaimedStatus is what the caller
// says happened; it exists only so the field has somewhere untrusted to live.
type notification struct {
	MerchantUID   string
	ClaimedStatus string
}

// Apply re-queries the gateway for merchant_uid and applies the authoritative
// status to the local registration. Idempotent: replaying the same result
// leaves the record unchanged.
func Apply(ctx context.Context, db *gorm.DB, cfg config.TicketingConfig, merchantUID string, now time.Time) (*tickets.Registration, error) {
	var registration tickets.Registration
	err := db.Where("merchant_uid = ?", merchantUID).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownMerchantUID
	}
	if err != nil {
		return nil, err
	}

	client, err := iamport.Connect(ctx, cfg.ImpBaseURL, cfg.ImpAPIKey, cfg.ImpAPISecret)
	if err != nil {
		return nil, err
	}
	result, err := client.FindByMerchantUID(ctx, merchantUID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"payment_status": result.Status,
	}
	switch result.Status {
	case tickets.StatusPaid:
		if registration.Confirmed == nil {
			registration.Confirmed = &now
			updates["confirmed"] = now
		}
	case tickets.StatusCancelled:
		if registration.Canceled == nil {
			registration.Canceled = &now
			updates["canceled"] = now
		}
	}
	registration.PaymentStatus = result.Status

	if err := db.Model(&registration).Updates(updates).Error; err != nil {
		return nil, err
	}

	return &registration, nil
}

// Callback is the inbound webhook endpoint. Responds 200 once the
// authoritative status is applied, even when nothing changed, so the gateway
// stops retrying.
func Callback(c *gin.Context) {
	n := notification{
		MerchantUID:   c.PostForm("merchant_uid"),
		ClaimedStatus: c.PostForm("status"),
	}
	if n.MerchantUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_uid missing"})
		return
	}

	_, err := Apply(c.Request.Context(), database.DB, config.Ticketing(), n.MerchantUID, time.Now())
	if errors.Is(err, ErrUnknownMerchantUID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown merchant_uid"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received"})
}
