package tickets

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"conference-app/config"
	"conference-app/database"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
)

// openTestDB returns an isolated SQLite database in a temp directory with the
// full schema migrated.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

// fakeGateway is an in-process stand-in for the payment provider.
type fakeGateway struct {
	mu          sync.Mutex
	ChargeCalls int
	CancelCalls int

	// nonzero turns the matching endpoint into an application error
	ChargeCode    int
	ChargeMessage string
	CancelCode    int
	CancelMessage string

	// what /payments/find reports
	ConfirmAmount int
	ConfirmStatus string

	srv *httptest.Server
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{ConfirmStatus: tickets.StatusPaid}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/getToken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"","response":{"access_token":"test-token"}}`)
	})
	charge := func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.ChargeCalls++
		code, message := g.ChargeCode, g.ChargeMessage
		g.mu.Unlock()

		if code != 0 {
			fmt.Fprintf(w, `{"code":%d,"message":%q,"response":null}`, code, message)
			return
		}
		r.ParseForm()
		fmt.Fprintf(w, `{"code":0,"message":"","response":{"merchant_uid":%q,"status":"paid"}}`,
			r.PostForm.Get("merchant_uid"))
	}
	mux.HandleFunc("/subscribe/payments/onetime/", charge)
	mux.HandleFunc("/subscribe/payments/foreign/", charge)
	mux.HandleFunc("/payments/cancel/", func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.CancelCalls++
		code, message := g.CancelCode, g.CancelMessage
		g.mu.Unlock()

		if code != 0 {
			fmt.Fprintf(w, `{"code":%d,"message":%q,"response":null}`, code, message)
			return
		}
		r.ParseForm()
		fmt.Fprintf(w, `{"code":0,"message":"","response":{"merchant_uid":%q,"status":"cancelled"}}`,
			r.PostForm.Get("merchant_uid"))
	})
	mux.HandleFunc("/payments/find/", func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimPrefix(r.URL.Path, "/payments/find/")
		g.mu.Lock()
		amount, status := g.ConfirmAmount, g.ConfirmStatus
		g.mu.Unlock()

		fmt.Fprintf(w, `{"code":0,"message":"","response":{
			"imp_uid":"imp_test","merchant_uid":%q,"pg_tid":"tid_test",
			"amount":%d,"status":%q,"pay_method":"card"}}`, uid, amount, status)
	})

	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

// ticketingConfig points the purchase flow at the fake gateway with the
// registration window wide open.
func ticketingConfig(g *fakeGateway, totalTicket int) config.TicketingConfig {
	return config.TicketingConfig{
		ImpBaseURL:        g.srv.URL,
		ImpAPIKey:         "key",
		ImpAPISecret:      "secret",
		RegistrationOpen:  time.Now().Add(-24 * time.Hour),
		RegistrationClose: time.Now().Add(24 * time.Hour),
		TotalTicket:       totalTicket,
	}
}

func seedUser(t *testing.T, db *gorm.DB, email string) users.User {
	t.Helper()
	user := users.User{Email: email, Name: "Test User"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedOption(t *testing.T, db *gorm.DB, price, total int) tickets.Option {
	t.Helper()
	option := tickets.Option{
		Name:     "Conference",
		IsActive: true,
		Price:    price,
		Total:    total,
	}
	if err := db.Create(&option).Error; err != nil {
		t.Fatalf("seed option: %v", err)
	}
	return option
}

func cardRequest(optionID uint) *PaymentRequest {
	return &PaymentRequest{
		MerchantUID:   NewMerchantUID(),
		OptionID:      optionID,
		Name:          "Kim Buyer",
		PhoneNumber:   "010-0000-0000",
		PaymentMethod: tickets.MethodCard,
		Token:         "client-token",
		CardNumber:    "1234-1234-1234-1234",
		Expiry:        "2027-12",
		Birth:         "900101",
		Pwd2Digit:     "00",
	}
}
