package database

import (
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"storefront/config"
)

// Open connects to the configured database and verifies the connection.
func Open(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "sqlite3" {
		// sqlite serialises writers; one connection avoids SQLITE_BUSY inside transactions.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}
	log.Printf("Connected to %s database", cfg.DBDriver)
	return db, nil
}

// Migrate creates every table the storefront needs if it does not exist.
func Migrate(db *sqlx.DB) error {
	var statements []string
	switch db.DriverName() {
	case "mysql":
		statements = mysqlSchema
	case "sqlite3":
		statements = sqliteSchema
	default:
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement %d: %w", i, err)
		}
	}
	return nil
}
