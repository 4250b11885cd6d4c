// Package dbtest opens throwaway in-memory SQLite databases carrying the
// record store schema, for repository and ledger tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		bio TEXT,
		avatar_url TEXT,
		role TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE user_roles (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE referral_codes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		code TEXT NOT NULL UNIQUE,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		uses_count INTEGER NOT NULL DEFAULT 0 CHECK (uses_count >= 0),
		created_at DATETIME
	)`,
	`CREATE TABLE referrals (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL,
		referred_id TEXT NOT NULL UNIQUE,
		referral_code_id TEXT NOT NULL REFERENCES referral_codes(id),
		status TEXT NOT NULL DEFAULT 'pending',
		qualification_type TEXT NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
}

// Open returns a fresh, isolated database with every table created.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A shared in-memory database disappears with its last connection.
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}
	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// DropTable removes a table so callers can simulate store failures.
func DropTable(t testing.TB, conn *gorm.DB, table string) {
	t.Helper()
	if err := conn.Exec("DROP TABLE " + table).Error; err != nil {
		t.Fatalf("drop %s: %v", table, err)
	}
}
