package db

import (
	"fmt"
	"log"
)

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations() error {
	if err := db.runSlotsTableMigration(); err != nil {
		return err
	}

	if err := db.runUpdatedAtMigration(); err != nil {
		return err
	}

	return nil
}

// runSlotsTableMigration creates the slots table in databases that were
// created empty or by another tool
func (db *DB) runSlotsTableMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type = 'table' AND name = 'slots'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for slots table: %w", err)
	}

	if count == 0 {
		log.Println("Running migration: Creating slots table...")

		_, err := db.conn.Exec(`
			CREATE TABLE slots (
			    key TEXT PRIMARY KEY,
			    value TEXT NOT NULL,
			    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			    updated_at DATETIME
			)
		`)
		if err != nil {
			return fmt.Errorf("creating slots table: %w", err)
		}

		log.Println("Migration completed successfully")
	}

	return nil
}

// runUpdatedAtMigration adds the updated_at column to slots tables
// created before writes were timestamped
func (db *DB) runUpdatedAtMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('slots')
		WHERE name = 'updated_at'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for updated_at column: %w", err)
	}

	if count == 0 {
		log.Println("Running migration: Adding updated_at column...")

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		defer tx.Rollback()

		_, err = tx.Exec(`ALTER TABLE slots ADD COLUMN updated_at DATETIME`)
		if err != nil && err.Error() != "duplicate column name: updated_at" {
			return fmt.Errorf("adding updated_at column: %w", err)
		}

		_, err = tx.Exec(`CREATE INDEX IF NOT EXISTS idx_slots_updated_at ON slots(updated_at DESC)`)
		if err != nil {
			return fmt.Errorf("indexing updated_at: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration: %w", err)
		}

		log.Println("Migration completed successfully")
	}

	return nil
}
