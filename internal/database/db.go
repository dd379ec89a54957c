package database

import (
	"fmt"
	"log"

	"github.com/rasencioDatabrain/ChatManager/internal/config"
	"github.com/rasencioDatabrain/ChatManager/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the database connection and runs migrations. PostgreSQL is used
// when DB_HOST is configured, otherwise a local SQLite file.
func Init(cfg *config.Config) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.DBHost != "" {
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Println("Connected to PostgreSQL successfully")
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Printf("Using SQLite database at %s", cfg.SQLitePath)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the schema auto-migration for all models.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Conversation{},
		&models.Message{},
		&models.Client{},
		&models.User{},
		&models.Group{},
		&models.GroupMember{},
		&models.Schedule{},
		&models.TimeRange{},
		&models.Template{},
		&models.BulkMessage{},
		&models.BulkRecipient{},
	)
	if err != nil {
		return fmt.Errorf("auto-migration: %w", err)
	}
	return nil
}

// OrderByActivity sorts conversations by last activity descending, pushing
// conversations without any message to the end.
func OrderByActivity(db *gorm.DB) *gorm.DB {
	return db.Order("last_message_at IS NULL").Order("last_message_at DESC")
}
