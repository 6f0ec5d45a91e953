package routes

import (
	adminapi "conference-app/internal/api/admin"
	"conference-app/internal/api/paymentwebhook"
	programapi "conference-app/internal/api/program"
	ticketsapi "conference-app/internal/api/tickets"
	"conference-app/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Gateway server-to-server notification; no auth, no sanitizing.
	r.POST("/payment/callback", paymentwebhook.Callback)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())
	public.GET("/registration", ticketsapi.ListOptions)

	// Authenticated
	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(), middleware.SanitizeAndCleanInputMiddleware())
	auth.POST("/registration/payment", ticketsapi.ProcessPaymentHandler)
	auth.GET("/registration/status", ticketsapi.RegistrationStatus)
	auth.GET("/registration/receipt", ticketsapi.Receipt)
	auth.GET("/registration/manual", ticketsapi.ListManualPayments)
	auth.POST("/registration/manual/payment", ticketsapi.ProcessManualPaymentHandler)

	auth.GET("/program/tutorials/:id", programapi.TutorialDetail)
	auth.POST("/program/tutorials/:id/join", programapi.TutorialJoin)
	auth.POST("/program/tutorials/:id/leave", programapi.TutorialLeave)
	auth.GET("/program/sprints/:id", programapi.SprintDetail)
	auth.POST("/program/sprints/:id/join", programapi.SprintJoin)
	auth.POST("/program/sprints/:id/leave", programapi.SprintLeave)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/dashboard", adminapi.AdminDashboard)
	admin.GET("/registrations", adminapi.ListRegistrations)
	admin.POST("/registrations/cancel", adminapi.CancelRegistrationsHandler)
	admin.POST("/registrations/bank-alert", adminapi.SendBankAlert)
	admin.POST("/registrations/issue-ticket", adminapi.IssueTicketHandler)
	admin.POST("/manual-payments", adminapi.CreateManualPayment)
	admin.POST("/reconcile", adminapi.ReconcileHandler)
}
