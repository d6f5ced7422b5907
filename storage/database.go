package storage

import (
	"fmt"
	"strings"

	"bhive-server/models"

	"github.com/kataras/golog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the database named by driver ("postgres" or "mysql").
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set in the environment variables")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "", "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	golog.Infof("connected to %s database", dialector.Name())
	return db, nil
}

func performMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Room{}, // reservations reference rooms
		&models.Reservation{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		golog.Warnf("no overlap constraint on %s, relying on row locks only", db.Dialector.Name())
		return nil
	}

	// Storage-level backstop for non-overlapping blocking stays per room.
	return db.Exec(`
DO $$
BEGIN
	CREATE EXTENSION IF NOT EXISTS btree_gist;
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_stay_order') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_stay_order CHECK (check_in < check_out);
	END IF;
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
		ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
			EXCLUDE USING gist (room_id WITH =, tstzrange(check_in, check_out, '[)') WITH &&)
			WHERE (status IN ('Pending', 'Reserved', 'Ongoing'));
	END IF;
END $$;`).Error
}

func InitializeDB(driver, dsn string) (*gorm.DB, error) {
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := performMigrations(db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return db, nil
}
