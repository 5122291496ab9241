package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/iliyamo/direct-message-service/internal/repository"
)

const (
	createUsersTable = `CREATE TABLE IF NOT EXISTS users (
  id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  username      VARCHAR(64)     NOT NULL,
  password_hash VARCHAR(100)    NOT NULL,
  created_at    DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (id),
  UNIQUE KEY uq_users_username (username)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	createMessagesTable = `CREATE TABLE IF NOT EXISTS messages (
  id        BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
  sender    VARCHAR(64)     NOT NULL,
  recipient VARCHAR(64)     NOT NULL,
  text      TEXT            NOT NULL,
  timestamp DATETIME        NOT NULL,
  PRIMARY KEY (id),
  KEY idx_messages_recipient (recipient)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`
)

// Migrate creates the users and messages tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range []string{createUsersTable, createMessagesTable} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the privileged account once, check-then-insert. A
// concurrent seed from another instance loses the insert race with
// ErrUsernameExists, which is treated as success.
func SeedAdmin(ctx context.Context, users repository.UserStore, username, password string, cost int) error {
	exists, err := users.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := users.Create(ctx, username, password, cost); err != nil {
		if err == repository.ErrUsernameExists {
			return nil
		}
		return fmt.Errorf("seed admin: %w", err)
	}
	log.Printf("seeded admin user %q", username)
	return nil
}
