package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
	"conference-app/internal/infra/iamport"
)

// PaymentRequest is the purchase submission. Card fields pass through to the
// gateway untouched. For vbank the gateway has already issued the virtual
// account on the client side, so the submitted vbank fields are stored as-is.
type PaymentRequest struct {
	MerchantUID string `json:"merchant_uid"`
	OptionID    uint   `json:"option_id" binding:"required"`

	Name            string `json:"name" binding:"required"`
	TopSize         string `json:"top_size"`
	Company         string `json:"company"`
	PhoneNumber     string `json:"phone_number" binding:"required"`
	AdditionalPrice int    `json:"additional_price"`
	PaymentMethod   string `json:"payment_method" binding:"required"`

	// card
	Token      string `json:"token"`
	CardNumber string `json:"card_number"`
	Expiry     string `json:"expiry"`
	Birth      string `json:"birth"`
	Pwd2Digit  string `json:"pwd_2digit"`

	// vbank, as issued by the gateway's client-side flow
	PgTID       string `json:"pg_tid"`
	PayMethod   string `json:"pay_method"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason"`
	VbankNum    string `json:"vbank_num"`
	VbankName   string `json:"vbank_name"`
	VbankDate   string `json:"vbank_date"`
	VbankHolder string `json:"vbank_holder"`
}

// PaymentResult is what purchase endpoints hand back to the frontend. Gateway
// rejections keep the provider's code and message so the page can show them.
type PaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func fail(message string) *PaymentResult {
	return &PaymentResult{Success: false, Message: message}
}

func gatewayFail(err error) (*PaymentResult, error) {
	var gerr *iamport.Error
	if errors.As(err, &gerr) {
		return &PaymentResult{Success: false, Code: gerr.Code, Message: gerr.Message}, nil
	}
	// transport failure, surfaced as an internal error
	return nil, err
}

// NewMerchantUID generates an opaque transaction reference, a uuid4 with the
// dashes stripped to fit the gateway's 32-character limit.
func NewMerchantUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// ProcessPayment runs the purchase flow: window gate, duplicate gate,
// validation, the global and per-option capacity gates, then the gateway
// round-trip, persisting the registration only on a fully confirmed outcome.
func ProcessPayment(ctx context.Context, db *gorm.DB, cfg config.TicketingConfig, user users.User, req *PaymentRequest, now time.Time) (*PaymentResult, error) {
	if !IsTicketOpen(now, cfg) {
		return fail("registration is closed"), nil
	}

	registered, err := tickets.HasActiveRegistration(db, user.ID)
	if err != nil {
		return nil, err
	}
	if registered {
		return fail("you already have an active registration"), nil
	}

	if req.AdditionalPrice < 0 {
		return fail("additional price must be 0 or more"), nil
	}

	remaining, err := RemainingTicketCount(db, cfg)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		return fail("tickets are sold out"), nil
	}

	var option tickets.Option
	if err := db.First(&option, req.OptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail("unknown ticket option"), nil
		}
		return nil, err
	}
	if !option.IsActive {
		return fail("this ticket option is no longer on sale"), nil
	}
	if !option.HasAdditionalPrice && req.AdditionalPrice > 0 {
		return fail("this ticket option does not take additional funding"), nil
	}

	if req.MerchantUID == "" {
		req.MerchantUID = NewMerchantUID()
	}

	registration := tickets.Registration{
		UserID:          user.ID,
		MerchantUID:     req.MerchantUID,
		OptionID:        &option.ID,
		Option:          &option,
		Name:            req.Name,
		Email:           user.Email,
		Company:         req.Company,
		PhoneNumber:     req.PhoneNumber,
		TopSize:         req.TopSize,
		AdditionalPrice: req.AdditionalPrice,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   tickets.StatusReady,
	}

	// Re-check right before charging. The check and the insert are still not
	// one atomic step, so two near-simultaneous buyers can both pass; the
	// window is narrow and reconciliation catches the oversell.
	soldout, err := option.SoldOut(db)
	if err != nil {
		return nil, err
	}
	if soldout {
		return fail(fmt.Sprintf("%s tickets are sold out", option.Name)), nil
	}

	switch registration.PaymentMethod {
	case tickets.MethodCard:
		client, err := iamport.Connect(ctx, cfg.ImpBaseURL, cfg.ImpAPIKey, cfg.ImpAPISecret)
		if err != nil {
			return gatewayFail(err)
		}

		params := &iamport.ChargeParams{
			Token:       req.Token,
			MerchantUID: registration.MerchantUID,
			Amount:      registration.TotalPrice(),
			CardNumber:  req.CardNumber,
			Expiry:      req.Expiry,
			Birth:       req.Birth,
			Pwd2Digit:   req.Pwd2Digit,
			Name:        option.Name,
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

		// The charge response is not trusted for the amount; fetch the
		// authoritative confirmation.
		confirm, err := client.FindByMerchantUID(ctx, registration.MerchantUID)
		if err != nil {
			return gatewayFail(err)
		}
		if confirm.Amount != registration.TotalPrice() {
			return nil, ErrAmountMismatch
		}

		registration.TransactionCode = confirm.PgTID
		registration.PaymentMethod = confirm.PayMethod
		registration.PaymentStatus = confirm.Status
		registration.PaymentMessage = confirm.FailReason
		registration.VbankName = confirm.VbankName
		registration.VbankNum = confirm.VbankNum
		registration.VbankDate = confirm.VbankDate
		registration.VbankHolder = confirm.VbankHolder

	case tickets.MethodVbank:
		registration.TransactionCode = req.PgTID
		registration.PaymentMethod = req.PayMethod
		registration.PaymentStatus = req.Status
		registration.PaymentMessage = req.FailReason
		registration.VbankNum = req.VbankNum
		registration.VbankName = req.VbankName
		registration.VbankDate = req.VbankDate
		registration.VbankHolder = req.VbankHolder

	default:
		return fail("unknown payment method"), nil
	}

	if err := db.Create(&registration).Error; err != nil {
		return nil, err
	}

	return &PaymentResult{Success: true}, nil
}
