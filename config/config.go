package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	PORT       string
	DB_URL     string
	JWT_SECRET string

	SMTP_FROM     string
	SMTP_PASSWORD string
	SMTP_HOST     string
	SMTP_PORT     string
)

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	PORT = getEnv("PORT", "8080")
	DB_URL = mustEnv("DB_URL")
	JWT_SECRET = mustEnv("JWT_SECRET")

	SMTP_FROM = getEnv("SMTP_FROM", "support@conference.example")
	SMTP_PASSWORD = getEnv("SMTP_PASSWORD", "")
	SMTP_HOST = getEnv("SMTP_HOST", "")
	SMTP_PORT = getEnv("SMTP_PORT", "587")
}

// TicketingConfig is a snapshot of the ticketing settings. Staff adjust these
// values while the server runs, so callers take a fresh snapshot per request
// instead of reading package vars loaded once at startup.
type TicketingConfig struct {
	ImpBaseURL   string
	ImpAPIKey    string
	ImpAPISecret string

	RegistrationOpen  time.Time
	RegistrationClose time.Time

	// TotalTicket caps active registrations across every option.
	TotalTicket int
}

const windowLayout = "2006-01-02 15:04"

// Ticketing reads the current ticketing settings from the environment.
func Ticketing() TicketingConfig {
	return TicketingConfig{
		ImpBaseURL:        getEnv("IMP_BASE_URL", "https://api.iamport.kr"),
		ImpAPIKey:         os.Getenv("IMP_API_KEY"),
		ImpAPISecret:      os.Getenv("IMP_API_SECRET"),
		RegistrationOpen:  parseWindow(os.Getenv("REGISTRATION_OPEN")),
		RegistrationClose: parseWindow(os.Getenv("REGISTRATION_CLOSE")),
		TotalTicket:       getEnvInt("TOTAL_TICKET", 1500),
	}
}

func parseWindow(value string) time.Time {
	t, err := time.ParseInLocation(windowLayout, value, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}
