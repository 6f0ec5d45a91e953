package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conference-app/config"
	"conference-app/database"
	ticketsapi "conference-app/internal/api/tickets"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/infra/iamport"
	"conference-app/internal/jobs"
	"conference-app/internal/notify"
)

type AdminRegistration struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Company       string `json:"company"`
	OptionName    string `json:"option_name"`
	PaymentMethod string `json:"payment_method"`
	PaymentStatus string `json:"payment_status"`
	CreatedAt     string `json:"created_at"`
	Confirmed     string `json:"confirmed,omitempty"`
	Canceled      string `json:"canceled,omitempty"`
}

func AdminDashboard(c *gin.Context) {
	var total, paid, ready, cancelled int64
	database.DB.Model(&tickets.Registration{}).Count(&total)
	database.DB.Model(&tickets.Registration{}).Where("payment_status = ?", tickets.StatusPaid).Count(&paid)
	database.DB.Model(&tickets.Registration{}).Where("payment_status = ?", tickets.StatusReady).Count(&ready)
	database.DB.Model(&tickets.Registration{}).Where("payment_status = ?", tickets.StatusCancelled).Count(&cancelled)

	c.JSON(http.StatusOK, gin.H{
		"registrations": total,
		"paid":          paid,
		"ready":         ready,
		"cancelled":     cancelled,
	})
}

// ListRegistrations lists registrations, filterable by option, payment method
// and payment status.
func ListRegistrations(c *gin.Context) {
	query := database.DB.Preload("Option").Preload("User").Order("id")
	if option := c.Query("option_id"); option != "" {
		query = query.Where("option_id = ?", option)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}
	if status := c.Query("payment_status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var regs []tickets.Registration
	if err := query.Find(&regs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registrations"})
		return
	}

	result := make([]AdminRegistration, 0, len(regs))
	for i := range regs {
		row := AdminRegistration{
			ID:            regs[i].ID,
			Name:          regs[i].Name,
			Email:         regs[i].Email,
			Company:       regs[i].Company,
			PaymentMethod: regs[i].PaymentMethod,
			PaymentStatus: regs[i].PaymentStatus,
			CreatedAt:     regs[i].CreatedAt.Format("2006-01-02 15:04"),
		}
		if regs[i].Option != nil {
			row.OptionName = regs[i].Option.Name
		}
		if regs[i].Confirmed != nil {
			row.Confirmed = regs[i].Confirmed.Format("2006-01-02 15:04")
		}
		if regs[i].Canceled != nil {
			row.Canceled = regs[i].Canceled.Format("2006-01-02 15:04")
		}
		result = append(result, row)
	}

	c.JSON(http.StatusOK, result)
}

// CreateManualPayment provisions an ad-hoc charge for a user.
func CreateManualPayment(c *gin.Context) {
	var body struct {
		UserID      uint   `json:"user_id" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
		Price       int    `json:"price" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Price must be positive"})
		return
	}

	mp := tickets.ManualPayment{
		UserID:        body.UserID,
		Title:         body.Title,
		Description:   body.Description,
		Price:         body.Price,
		MerchantUID:   ticketsapi.NewMerchantUID(),
		PaymentMethod: tickets.MethodCard,
		PaymentStatus: tickets.StatusReady,
	}
	if err := database.DB.Create(&mp).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create manual payment"})
		return
	}

	c.JSON(http.StatusOK, mp)
}

// IssueTicketHandler records that a physical ticket was printed for a
// registration.
func IssueTicketHandler(c *gin.Context) {
	issuerID := c.GetUint("user_id")
	if issuerID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}

	var body struct {
		RegistrationID uint `json:"registration_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var registration tickets.Registration
	if err := database.DB.First(&registration, body.RegistrationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registration not found"})
		return
	}

	issue := tickets.IssueTicket{
		RegistrationID: registration.ID,
		IssuerID:       issuerID,
		IssueDate:      time.Now(),
	}
	if err := database.DB.Create(&issue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record issuance"})
		return
	}

	c.JSON(http.StatusOK, issue)
}

const bankAlertSubject = "Please check your conference payment"

const bankAlertBody = `Hello,

We checked for your bank transfer but could not find it yet. If you
transferred under a different name, please contact the organizing team.
Transfers are due within a week of purchase.

Thank you.
`

// SendBankAlert mass-mails selected registrations asking them to complete
// their bank transfer. All-or-nothing: any SMTP failure fails the request.
func SendBankAlert(c *gin.Context) {
	var body struct {
		RegistrationIDs []uint `json:"registration_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var regs []tickets.Registration
	if err := database.DB.Where("id IN ?", body.RegistrationIDs).Find(&regs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load registrations"})
		return
	}

	messages := make([]notify.Message, 0, len(regs))
	for i := range regs {
		messages = append(messages, notify.Message{
			Subject: bankAlertSubject,
			Body:    bankAlertBody,
			From:    config.SMTP_FROM,
			To:      []string{regs[i].Email},
		})
	}

	if err := notify.SendMass(messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": len(messages)})
}

// CancelRegistrationsHandler cancels a batch of card payments and reports the
// per-item outcome. Per-item gateway failures do not abort the batch; a
// failure sending the notification batch fails the whole request.
func CancelRegistrationsHandler(c *gin.Context) {
	var body struct {
		RegistrationIDs []uint `json:"registration_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, messages, err := ticketsapi.CancelRegistrations(
		c.Request.Context(), database.DB, config.Ticketing(), body.RegistrationIDs, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := notify.SendMass(messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ReconcileHandler runs the paid-list cross-check for the given period and
// returns the mismatch report.
func ReconcileHandler(c *gin.Context) {
	var body struct {
		Since string `json:"since" binding:"required"`
		Until string `json:"until"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	since, err := time.ParseInLocation("2006-01-02", body.Since, time.Local)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since date"})
		return
	}
	until := time.Now()
	if body.Until != "" {
		until, err = time.ParseInLocation("2006-01-02", body.Until, time.Local)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid until date"})
			return
		}
	}

	cfg := config.Ticketing()
	client, err := iamport.Connect(c.Request.Context(), cfg.ImpBaseURL, cfg.ImpAPIKey, cfg.ImpAPISecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	report, err := jobs.Reconcile(c.Request.Context(), database.DB, client, since, until)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
