package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"conference-app/database"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"
	"conference-app/internal/infra/iamport"
)

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

// paidListServer serves the token and paginated paid-list endpoints, two
// entries per page.
func paidListServer(t *testing.T, entries []iamport.PaidEntry) *httptest.Server {
	t.Helper()
	const perPage = 2

	mux := http.NewServeMux()
	mux.HandleFunc("/users/getToken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"message":"","response":{"access_token":"test-token"}}`)
	})
	mux.HandleFunc("/payments/status/paid", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		lo := (page - 1) * perPage
		hi := lo + perPage
		if lo > len(entries) {
			lo = len(entries)
		}
		if hi > len(entries) {
			hi = len(entries)
		}

		next := page + 1
		if hi >= len(entries) {
			next = 0
		}

		list, _ := json.Marshal(entries[lo:hi])
		fmt.Fprintf(w, `{"code":0,"message":"","response":{"list":%s,"next":%d}}`, list, next)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func seedPaidRegistration(t *testing.T, db *gorm.DB, merchantUID, email string) {
	t.Helper()
	user := users.User{Email: email, Name: "Holder"}
	require.NoError(t, db.Create(&user).Error)
	option := tickets.Option{Name: "Conference", IsActive: true, Price: 150000, Total: 100}
	require.NoError(t, db.Create(&option).Error)
	require.NoError(t, db.Create(&tickets.Registration{
		UserID:        user.ID,
		OptionID:      &option.ID,
		MerchantUID:   merchantUID,
		Email:         email,
		PaymentMethod: tickets.MethodCard,
		PaymentStatus: tickets.StatusPaid,
	}).Error)
}

func TestReconcile(t *testing.T) {
	db := openTestDB(t)

	seedPaidRegistration(t, db, "order-both-1", "both1@example.com")
	seedPaidRegistration(t, db, "order-both-2", "both2@example.com")
	seedPaidRegistration(t, db, "order-local-only", "localonly@example.com")

	// Five entries forces three pages through the fake's two-per-page window.
	srv := paidListServer(t, []iamport.PaidEntry{
		{MerchantUID: "order-both-1", BuyerEmail: "both1@example.com"},
		{MerchantUID: "order-both-2", BuyerEmail: "both2@example.com"},
		{MerchantUID: "order-remote-only", BuyerEmail: "stray@example.com"},
		{MerchantUID: "order-remote-extra-1", BuyerEmail: "extra1@example.com"},
		{MerchantUID: "order-remote-extra-2", BuyerEmail: "extra2@example.com"},
	})

	client, err := iamport.Connect(context.Background(), srv.URL, "key", "secret")
	require.NoError(t, err)

	report, err := Reconcile(context.Background(), db, client, time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)

	require.Len(t, report.RegisteredNotPaid, 1)
	assert.Equal(t, "order-local-only", report.RegisteredNotPaid[0].MerchantUID)
	assert.Equal(t, "localonly@example.com", report.RegisteredNotPaid[0].Email)

	require.Len(t, report.PaidNotRegistered, 3)
	uids := make([]string, 0, 3)
	for _, m := range report.PaidNotRegistered {
		uids = append(uids, m.MerchantUID)
	}
	assert.ElementsMatch(t, []string{"order-remote-only", "order-remote-extra-1", "order-remote-extra-2"}, uids)
}

func TestReconcile_Clean(t *testing.T) {
	db := openTestDB(t)
	seedPaidRegistration(t, db, "order-clean", "clean@example.com")

	srv := paidListServer(t, []iamport.PaidEntry{
		{MerchantUID: "order-clean", BuyerEmail: "clean@example.com"},
	})

	client, err := iamport.Connect(context.Background(), srv.URL, "key", "secret")
	require.NoError(t, err)

	report, err := Reconcile(context.Background(), db, client, time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, report.RegisteredNotPaid)
	assert.Empty(t, report.PaidNotRegistered)
}

func TestReconcile_IgnoresUnpaidLocals(t *testing.T) {
	db := openTestDB(t)

	user := users.User{Email: "ready@example.com", Name: "Ready"}
	require.NoError(t, db.Create(&user).Error)
	option := tickets.Option{Name: "Conference", IsActive: true, Price: 150000, Total: 100}
	require.NoError(t, db.Create(&option).Error)
	require.NoError(t, db.Create(&tickets.Registration{
		UserID:        user.ID,
		OptionID:      &option.ID,
		MerchantUID:   "order-still-ready",
		Email:         user.Email,
		PaymentMethod: tickets.MethodVbank,
		PaymentStatus: tickets.StatusReady,
	}).Error)

	srv := paidListServer(t, nil)
	client, err := iamport.Connect(context.Background(), srv.URL, "key", "secret")
	require.NoError(t, err)

	report, err := Reconcile(context.Background(), db, client, time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, report.RegisteredNotPaid, "a virtual account awaiting deposit is not a mismatch")
	assert.Empty(t, report.PaidNotRegistered)
}
