package db

import (
	"fmt"

	"tabshare/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// models is the full schema, migrated and verified together
func models() []any {
	return []any{&domain.User{}, &domain.Tab{}, &domain.FollowEdge{}, &domain.FavoriteEdge{}}
}

// Migrate performs the schema migration. It is run once at deploy time by
// cmd/migrate, never by the running service.
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(models()...)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}

// VerifySchema checks that every table exists. The server calls this at
// startup and treats a missing table as fatal: an un-migrated database is an
// operator error, not something the service repairs on its own.
func VerifySchema(db *gorm.DB) error {
	for _, m := range models() {
		if !db.Migrator().HasTable(m) {
			return fmt.Errorf("schema not migrated: missing table for %T (run cmd/migrate)", m)
		}
	}
	return nil
}
