// Package database persists analyzed reviews and the restaurant catalog
// in PostgreSQL. The server runs without it when no database is configured.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/restaurantlens/restaurantlens/internal/database/models"
)

// Config represents database configuration
type Config struct {
	Enabled  bool   `yaml:"enabled" env:"DB_ENABLED" default:"false"`
	Host     string `yaml:"host" env:"DB_HOST" default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" default:"5432"`
	Username string `yaml:"username" env:"DB_USERNAME" default:"postgres"`
	Password string `yaml:"password" env:"DB_PASSWORD" default:""`
	Database string `yaml:"database" env:"DB_DATABASE" default:"restaurantlens"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" default:"disable"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" default:"30m"`

	// Performance settings
	LogLevel      string        `yaml:"log_level" env:"DB_LOG_LEVEL" default:"warn"`
	SlowThreshold time.Duration `yaml:"slow_threshold" env:"DB_SLOW_THRESHOLD" default:"200ms"`

	// Migration settings
	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" default:"true"`
}

// DefaultConfig returns the default database configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Username:        "postgres",
		Database:        "restaurantlens",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
		LogLevel:        "warn",
		SlowThreshold:   200 * time.Millisecond,
		AutoMigrate:     true,
	}
}

// Connection represents a database connection
type Connection struct {
	db     *gorm.DB
	config *Config
}

// NewConnection creates a new database connection
func NewConnection(config *Config) (*Connection, error) {
	dsn := buildDSN(config)

	gormConfig := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: false,
		},
		Logger: getLogger(config.LogLevel, config.SlowThreshold),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	conn := &Connection{
		db:     db,
		config: config,
	}

	if config.AutoMigrate {
		if err := conn.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("auto-migration failed: %w", err)
		}
	}

	return conn, nil
}

// DB returns the underlying GORM database instance
func (c *Connection) DB() *gorm.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping tests the database connection
func (c *Connection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate runs automatic migrations for all models
func (c *Connection) AutoMigrate() error {
	return c.db.AutoMigrate(
		&models.Review{},
		&models.Restaurant{},
	)
}

// Transaction executes a function within a database transaction
func (c *Connection) Transaction(fn func(*gorm.DB) error) error {
	return c.db.Transaction(fn)
}

// GetStats returns database connection statistics
func (c *Connection) GetStats() (map[string]interface{}, error) {
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	stats := sqlDB.Stats()

	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration,
	}, nil
}

// buildDSN builds the PostgreSQL Data Source Name
func buildDSN(config *Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		config.Port,
		config.Username,
		config.Password,
		config.Database,
		config.SSLMode,
	)
}

// getLogger configures the GORM logger based on level and slow threshold
func getLogger(level string, slowThreshold time.Duration) logger.Interface {
	var logLevel logger.LogLevel

	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "warn", "warning":
		logLevel = logger.Warn
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return logger.New(
		nil,
		logger.Config{
			SlowThreshold:             slowThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// HealthCheck verifies connectivity and that the reviews table answers
func (c *Connection) HealthCheck(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}

	var count int64
	if err := c.db.WithContext(ctx).Model(&models.Review{}).Count(&count).Error; err != nil {
		return fmt.Errorf("query test failed: %w", err)
	}

	return nil
}
