package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Versioned, idempotent schema migrations applied once at startup.
// Applied versions are recorded in schema_migrations and never re-run.

type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create books",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS books (
				book_id    BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				title      VARCHAR(255) NOT NULL,
				author     VARCHAR(255) NULL,
				genre      VARCHAR(100) NULL,
				image      VARCHAR(500) NULL,
				status     VARCHAR(20)  NOT NULL DEFAULT 'Available',
				created_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				updated_at DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
				PRIMARY KEY (book_id),
				UNIQUE KEY uq_books_title (title)
			)`,
		},
	},
	{
		version: 2,
		name:    "create users",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS users (
				user_id       BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				username      VARCHAR(100) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				email         VARCHAR(255) NULL,
				created_at    DATETIME(6)  NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				PRIMARY KEY (user_id),
				UNIQUE KEY uq_users_username (username)
			)`,
		},
	},
	{
		version: 3,
		name:    "create user_borrows",
		stmts: []string{`
			CREATE TABLE IF NOT EXISTS user_borrows (
				borrow_id   BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				borrow_ulid CHAR(26)        NOT NULL,
				user_id     BIGINT UNSIGNED NOT NULL,
				book_id     BIGINT UNSIGNED NOT NULL,
				borrowed_at DATETIME(6)     NOT NULL,
				returned_at DATETIME(6)     NULL,
				PRIMARY KEY (borrow_id),
				UNIQUE KEY uq_borrows_ulid (borrow_ulid),
				KEY idx_borrows_book_open (book_id, returned_at),
				KEY idx_borrows_user_open (user_id, returned_at),
				CONSTRAINT fk_borrows_user FOREIGN KEY (user_id) REFERENCES users (user_id) ON DELETE CASCADE,
				CONSTRAINT fk_borrows_book FOREIGN KEY (book_id) REFERENCES books (book_id) ON DELETE CASCADE
			)`,
		},
	},
}

func Migrate(ctx context.Context, db *sql.DB) error {
	const create = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT NOT NULL,
			applied_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
			PRIMARY KEY (version)
		)`
	if _, err := db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		applied, err := hasVersion(ctx, db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		err = RunInTx(ctx, db, nil, func(ctx context.Context, tx DBTX) error {
			for _, stmt := range m.stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, m.version)
			return err
		})
		if err != nil {
			return err
		}
		log.Printf("[INFO] applied migration %d: %s", m.version, m.name)
	}
	return nil
}

func hasVersion(ctx context.Context, db *sql.DB, v int) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, v).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SeedSampleBooks inserts the demo catalog. Existing titles are left alone,
// so calling it on every dev startup is harmless.
func SeedSampleBooks(ctx context.Context, db *sql.DB) error {
	sample := [][4]string{
		{"If love had a Price", "Ana Huang", "Romance", "if love had a price.jfif"},
		{"If the sun never sets", "Ana Huang", "Romance", "if the sun never sets.jfif"},
		{"If we ever meet again", "Ana Huang", "Romance", "if we ever meet again.jfif"},
		{"If we were perfect", "Ana Huang", "Romance", "if we were perfect.jfif"},
		{"King of Envy", "Ana Huang", "Romance", "king of envy.jfif"},
	}

	const q = `INSERT IGNORE INTO books (title, author, genre, image) VALUES (?, ?, ?, ?)`
	for _, row := range sample {
		if _, err := db.ExecContext(ctx, q, row[0], row[1], row[2], row[3]); err != nil {
			return fmt.Errorf("failed to seed %q: %w", row[0], err)
		}
	}
	return nil
}
