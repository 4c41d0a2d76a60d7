package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Setting keys.
const (
	SettingNextID          = "next_id"
	SettingIDCounter       = "id_counter"
	SettingMinQuantity     = "min_quantity"
	SettingJWTSecret       = "jwt_secret"
	SettingAdminSecretHash = "admin_secret_hash"
)

// DefaultMinQuantity is the global low-stock threshold when none is stored.
const DefaultMinQuantity = 30

// GetSetting returns the value stored under key and whether it exists.
func GetSetting(ctx context.Context, q Querier, key string) (string, bool, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func SetSetting(ctx context.Context, q Querier, key, value string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	return nil
}

// EnsureSetting stores value under key unless a value already exists, and
// returns whichever value ends up stored.
// Uses INSERT OR IGNORE + re-SELECT to avoid TOCTOU race on concurrent startup.
func EnsureSetting(ctx context.Context, q Querier, key, value string) (string, error) {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	var stored string
	err = q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return stored, nil
}

// GetMinQuantity returns the global low-stock threshold, falling back to
// DefaultMinQuantity when the stored value is missing or malformed.
func GetMinQuantity(ctx context.Context, q Querier) (int, error) {
	value, ok, err := GetSetting(ctx, q, SettingMinQuantity)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultMinQuantity, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return DefaultMinQuantity, nil
	}
	return n, nil
}

// GetJWTSecret retrieves the JWT secret from the database.
// If no secret exists, it generates one, stores it, and returns it.
func GetJWTSecret(ctx context.Context, q Querier) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return EnsureSetting(ctx, q, SettingJWTSecret, hex.EncodeToString(buf))
}
