// Package store is the sqlite backed settings jar. Each setting is a single
// string valued key with an expiry, mirroring cookie semantics: a missing or
// expired key falls back to its default at load time.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultRetention matches the 30 day cookie lifetime of the settings panel.
const DefaultRetention = 30 * 24 * time.Hour

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// Create directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{db: db}

	if err := database.createTable(); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return database, nil
}

func (d *Database) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (key)
	);
	`
	_, err := d.db.Exec(query)
	return err
}

// Set stores a key with the given retention. A non-positive retention removes
// the key, which is how a setting is cleared back to its default.
func (d *Database) Set(key, value string, retention time.Duration) error {
	if retention <= 0 {
		return d.Delete(key)
	}

	const stmt = `
		INSERT INTO settings (key, value, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			expires_at = excluded.expires_at
	`
	expiresAt := time.Now().Add(retention).UnixNano()
	if _, err := d.db.Exec(stmt, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", key, err)
	}
	return nil
}

// Get returns the stored value for key. The second return value is false when
// the key is absent or expired. Expired rows are removed on read.
func (d *Database) Get(key string) (string, bool, error) {
	const query = `SELECT value, expires_at FROM settings WHERE key = ?`

	var value string
	var expiresAt int64
	err := d.db.QueryRow(query, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get setting %s: %w", key, err)
	}

	if time.Now().UnixNano() >= expiresAt {
		if err := d.Delete(key); err != nil {
			return "", false, err
		}
		return "", false, nil
	}

	return value, true, nil
}

func (d *Database) Delete(key string) error {
	if _, err := d.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// Keys lists all non-expired keys currently stored.
func (d *Database) Keys() ([]string, error) {
	rows, err := d.db.Query(`SELECT key FROM settings WHERE expires_at > ?`, time.Now().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan setting key: %w", err)
		}
		keys = append(keys, k)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return keys, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
