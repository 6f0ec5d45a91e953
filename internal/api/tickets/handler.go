package tickets

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"conference-app/config"
	"conference-app/database"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
)

type optionView struct {
	ID                 uint   `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Price              int    `json:"price"`
	HasAdditionalPrice bool   `json:"has_additional_price"`
	SoldOut            bool   `json:"sold_out"`
}

// ListOptions is the public registration info page: active options with their
// soldout flags, whether the window is open, and whether the caller already
// holds a registration.
func ListOptions(c *gin.Context) {
	cfg := config.Ticketing()

	var options []tickets.Option
	if err := database.DB.Where("is_active = ?", true).Order("id").Find(&options).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load options"})
		return
	}

	views := make([]optionView, 0, len(options))
	for i := range options {
		soldout, err := options[i].SoldOut(database.DB)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load options"})
			return
		}
		views = append(views, optionView{
			ID:                 options[i].ID,
			Name:               options[i].Name,
			Description:        options[i].Description,
			Price:              options[i].Price,
			HasAdditionalPrice: options[i].HasAdditionalPrice,
			SoldOut:            soldout,
		})
	}

	isRegistered := false
	if userID := c.GetUint("user_id"); userID != 0 {
		registered, err := tickets.HasActiveRegistration(database.DB, userID)
		if err == nil {
			isRegistered = registered
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"is_ticket_open": IsTicketOpen(time.Now(), cfg),
		"is_registered":  isRegistered,
		"options":        views,
	})
}

func currentUser(c *gin.Context) (users.User, bool) {
	var user users.User
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return user, false
	}
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return user, false
	}
	return user, true
}

// ProcessPaymentHandler drives a ticket purchase. Business rejections come
// back as 200 with success=false so the page can show the reason; only
// transport-level trouble turns into a 5xx.
func ProcessPaymentHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, &PaymentResult{Success: false, Message: err.Error()})
		return
	}

	result, err := ProcessPayment(c.Request.Context(), database.DB, config.Ticketing(), user, &req, time.Now())
	if err != nil {
		if errors.Is(err, ErrAmountMismatch) {
			c.JSON(http.StatusInternalServerError, &PaymentResult{Success: false, Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, &PaymentResult{Success: false, Message: "payment gateway is unreachable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessManualPaymentHandler settles a staff-provisioned charge.
func ProcessManualPaymentHandler(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ManualPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, &PaymentResult{Success: false, Message: err.Error()})
		return
	}

	result, err := ProcessManualPayment(c.Request.Context(), database.DB, config.Ticketing(), user, &req, time.Now())
	if err != nil {
		if errors.Is(err, ErrAmountMismatch) {
			c.JSON(http.StatusInternalServerError, &PaymentResult{Success: false, Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, &PaymentResult{Success: false, Message: "payment gateway is unreachable"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RegistrationStatus returns the caller's most recent registration.
func RegistrationStatus(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var registration tickets.Registration
	err := database.DB.Preload("Option").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"registration": nil})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"registration": registration})
}

// Receipt returns the caller's paid registration, or 404 if none exists.
func Receipt(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var registration tickets.Registration
	err := database.DB.Preload("Option").
		Where("user_id = ? AND payment_status = ?", userID, tickets.StatusPaid).
		First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No paid registration"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"registration": registration})
}

// ListManualPayments returns the caller's provisioned charges.
func ListManualPayments(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var payments []tickets.ManualPayment
	if err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	c.JSON(http.StatusOK, payments)
}
