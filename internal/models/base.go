package models

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
	Debug  bool
	// Logger receives gorm's output. Nil means slog.Default().
	Logger *slog.Logger
}

// Dialector returns the gorm dialector for the configured driver.
func Dialector(config DatabaseConfig) (gorm.Dialector, error) {
	switch config.Driver {
	case "", "mysql":
		return mysql.Open(config.DSN), nil
	case "postgres":
		return postgres.Open(config.DSN), nil
	case "sqlite":
		return sqlite.Open(config.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}
}

// InitDB opens the database connection and migrates the schema
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(config),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", config.Driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// newGormLogger writes gorm's SQL and slow-query output through the
// application's slog handler. Lookups that find no row are expected and not
// logged.
func newGormLogger(config DatabaseConfig) logger.Interface {
	base := config.Logger
	if base == nil {
		base = slog.Default()
	}

	logLevel, writerLevel := logger.Warn, slog.LevelWarn
	if config.Debug {
		logLevel, writerLevel = logger.Info, slog.LevelDebug
	}

	return logger.New(slog.NewLogLogger(base.Handler(), writerLevel), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// Migrate creates or updates the tables for all models.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&User{}, &Message{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
