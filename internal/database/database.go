package database

import (
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"

	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/exchange"
	"bookswap/internal/domain/message"
	"bookswap/internal/domain/notification"
)

// Connect opens the database behind dsn: a postgres:// URL in production, a
// sqlite path (":memory:", "bookswap.db") for local development and tests.
// The sqlite branch rides on the cgo-free modernc driver.
func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		slog.Info("connecting to postgres")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	slog.Info("using sqlite for local development", "path", dsn)

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
	if err != nil {
		return nil, err
	}

	// sqlite has a single writer; more than one pooled connection also breaks
	// :memory: databases, which exist per connection.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

// Migrate creates or updates the schema for every entity the application owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.User{},
		&catalog.Book{},
		&exchange.Request{},
		&message.Message{},
		&notification.Notification{},
	)
}
