package tickets

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
	"conference-app/internal/infra/iamport"
)

// ManualPaymentRequest settles a staff-provisioned charge. Card only.
type ManualPaymentRequest struct {
	ManualPaymentID uint   `json:"manual_payment_id" binding:"required"`
	MerchantUID     string `json:"merchant_uid"`

	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`

	Token      string `json:"token"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	Birth      string `json:"birth"`
	Pwd2Digit  string `json:"pwd_2digit"`
}

// ProcessManualPayment charges a pre-provisioned ManualPayment for its fixed
// price. No inventory gates apply; the only state gate is "not already paid".
func ProcessManualPayment(ctx context.Context, db *gorm.DB, cfg config.TicketingConfig, user users.User, req *ManualPaymentRequest, now time.Time) (*PaymentResult, error) {
	var mp tickets.ManualPayment
	err := db.Where("id = ? AND user_id = ?", req.ManualPaymentID, user.ID).First(&mp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail("no such payment to settle"), nil
	}
	if err != nil {
		return nil, err
	}

	if mp.PaymentStatus == tickets.StatusPaid {
		return fail("this payment has already been settled"), nil
	}

	if req.MerchantUID == "" {
		req.MerchantUID = NewMerchantUID()
	}

	client, err := iamport.Connect(ctx, cfg.ImpBaseURL, cfg.ImpAPIKey, cfg.ImpAPISecret)
	if err != nil {
		return gatewayFail(err)
	}

	params := &iamport.ChargeParams{
		Token:       req.Token,
		MerchantUID: req.MerchantUID,
		Amount:      mp.Price,
		CardNumber:  req.CardNumber,
		Expiry:      req.Expiry,
		Birth:       req.Birth,
		Pwd2Digit:   req.Pwd2Digit,
		Name:        mp.Title,
		CustomerUID: user.Email,
		BuyerName:   req.Name,
		BuyerEmail:  user.Email,
		BuyerTel:    req.PhoneNumber,
	}
	if req.Birth == "" {
		_, err = client.Foreign(ctx, params)
	} else {
		_, err = client.Onetime(ctx, params)
	}
	if err != nil {
		return gatewayFail(err)
	}

	confirm, err := client.FindByMerchantUID(ctx, req.MerchantUID)
	if err != nil {
		return gatewayFail(err)
	}
	if confirm.Amount != mp.Price {
		return nil, ErrAmountMismatch
	}

	mp.MerchantUID = confirm.MerchantUID
	mp.TransactionCode = confirm.PgTID
	mp.ImpUID = confirm.ImpUID
	mp.PaymentMethod = confirm.PayMethod
	mp.PaymentStatus = confirm.Status
	mp.PaymentMessage = confirm.FailReason
	mp.Confirmed = &now

	if err := db.Save(&mp).Error; err != nil {
		return nil, err
	}

	return &PaymentResult{Success: true}, nil
}
