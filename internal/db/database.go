package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"registro-ponto/config"
	"registro-ponto/internal/core/models"

	"github.com/glebarez/sqlite" // Pure Go SQLite Treiber
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open öffnet die SQLite-Datenbank. Das Schema wird hier nicht angelegt, siehe Migrate.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("database file is not configured")
	}

	// Sicherstellen, dass das Verzeichnis für die Datenbankdatei existiert
	dbDir := filepath.Dir(cfg.File)
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		log.Errorf("Failed to create database directory '%s': %v", dbDir, err)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Konfiguration des GORM-Loggers
	gormLogger := logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second * 2,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true, // "nicht registriert" ist kein Fehler
			Colorful:                  false,
		},
	)

	log.Infof("Connecting to database: %s", cfg.File)
	gdb, err := gorm.Open(sqlite.Open(cfg.File), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Errorf("Failed to connect to database: %v", err)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	// SQLite verträgt nur einen Schreiber; wenige Verbindungen reichen für ein Terminal
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("Database connection established successfully")
	return gdb, nil
}

// Migrate legt die Tabellen persons und attendance_events an bzw. aktualisiert sie
func Migrate(gdb *gorm.DB) error {
	log.Info("Running database migrations...")
	if err := gdb.AutoMigrate(
		&models.Person{},
		&models.AttendanceEvent{},
	); err != nil {
		log.Errorf("Database migration failed: %v", err)
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Info("Database migrations completed successfully")
	return nil
}

// Close schließt den Verbindungspool
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
