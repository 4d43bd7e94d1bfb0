package main

import (
	"tabshare/internal/config" // Custom import path (Config)
	"tabshare/internal/db"     // Custom import path (Database)
)

// Main entry point for migration. This binary is the only thing that ever
// changes the schema; the server refuses to start against an un-migrated
// database instead of repairing it.
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Run the schema migration
}
