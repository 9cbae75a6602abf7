package db

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"hotel-ops-backend/config"
	"hotel-ops-backend/internal/model"
)

// Init initializes the database connection and runs migrations.
func Init(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	log.Println("Running database migrations...")
	if err := model.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("automigrate failed: %w", err)
	}

	if cfg.EnableConstraints {
		log.Println("Applying PostgreSQL check constraints...")
		if err := applyConstraintDDL(db); err != nil {
			log.Printf("Warning: failed to apply some constraint DDL: %v. Continuing without them.", err)
		}
	}

	log.Println("Database initialization complete.")
	return db, nil
}

func logLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// constraintDDL mirrors the domain rules in the schema. Each statement is
// idempotent so it can run on every start.
var constraintDDL = []string{
	"CREATE EXTENSION IF NOT EXISTS btree_gist;",

	// check-in strictly before check-out
	"DO $$ BEGIN " +
		"ALTER TABLE bookings ADD CONSTRAINT bookings_dates_ordered CHECK (check_in < check_out); " +
		"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

	"DO $$ BEGIN " +
		"ALTER TABLE bookings ADD CONSTRAINT bookings_reference_format CHECK (reference ~ '^[A-Z]{4}[0-9]{4}$'); " +
		"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

	"DO $$ BEGIN " +
		"ALTER TABLE rooms ADD CONSTRAINT rooms_condition_valid CHECK (condition IN ('CLEAN', 'DIRTY', 'IN_MAINTENANCE')); " +
		"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

	"DO $$ BEGIN " +
		"ALTER TABLE reservations ADD CONSTRAINT reservations_dates_ordered CHECK (start_date <= end_date); " +
		"EXCEPTION WHEN duplicate_object THEN NULL; END $$;",

	// closed-interval range index for overlap lookups on booked stays
	"CREATE INDEX IF NOT EXISTS idx_bookings_stay_range ON bookings " +
		"USING GIST (tstzrange(check_in, check_out, '[]'));",

	"CREATE INDEX IF NOT EXISTS idx_service_tasks_open ON service_tasks (room_id, status) WHERE status <> 'DONE';",
}

func applyConstraintDDL(db *gorm.DB) error {
	for _, ddl := range constraintDDL {
		if err := db.Exec(ddl).Error; err != nil {
			return fmt.Errorf("DDL failed on %q: %w", ddl, err)
		}
	}
	return nil
}
