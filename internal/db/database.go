package db

import (
	"log"
	"time"

	"paybridge/internal/config"
	"paybridge/internal/metrics"
	"paybridge/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the global gorm handle, initialized once at startup.
var DB *gorm.DB

// InitDB opens the postgres connection and migrates the schema.
func InitDB() {
	dsn := config.AppConfig.Database.DSN()

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("❌ Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := DB.AutoMigrate(
		&models.Bill{},
		&models.PaymentIntent{},
	); err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	metrics.DBConnectionStatus.Set(1)
	log.Printf("✅ Database connected: %s@%s:%d/%s",
		config.AppConfig.Database.User,
		config.AppConfig.Database.Host,
		config.AppConfig.Database.Port,
		config.AppConfig.Database.DBName)
}

// CloseDB closes the underlying connection pool.
func CloseDB() {
	if DB == nil {
		return
	}
	if sqlDB, err := DB.DB(); err == nil {
		sqlDB.Close()
	}
}
