package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

const settingJWTSecret = "jwt_secret"

// GetJWTSecret returns the token signing secret, generating and storing one
// on first use.
func GetJWTSecret(ctx context.Context, db *sql.DB) (string, error) {
	return initSetting(ctx, db, settingJWTSecret, randomHex)
}

// initSetting returns the stored value of key. When the key is missing a
// value from gen is inserted first; a concurrent writer that got there first
// wins and its value is returned.
func initSetting(ctx context.Context, db *sql.DB, key string, gen func() (string, error)) (string, error) {
	candidate, err := gen()
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", key, err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`,
		key, candidate,
	); err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var value string
	if err := db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value); err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// randomHex returns 32 random bytes hex encoded.
func randomHex() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
