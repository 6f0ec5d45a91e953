package database

import (
	"fmt"
	"log"
	"os"

	"conference-app/internal/domain/program"
	"conference-app/internal/domain/tickets"
	"conference-app/internal/domain/users"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal("❌ DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	DB = db

	if err := Migrate(DB); err != nil {
		log.Fatal("❌ AutoMigrate error:", err)
	}

	fmt.Println("✅ Connected and migrated successfully")
}

// Migrate creates all domain tables. Shared with the test setup, which runs it
// against sqlite.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// core
		&users.User{},
		&tickets.Option{},
		&tickets.Registration{},
		&tickets.ManualPayment{},
		&tickets.IssueTicket{},

		// program
		&program.TutorialSession{},
		&program.SprintSession{},
		&program.TutorialCheckin{},
		&program.SprintCheckin{},
	)
}
