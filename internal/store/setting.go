package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// Setting keys.
const (
	SettingEnabled = "enabled"
)

// SettingRepository reads and writes key-value settings.
type SettingRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingRepository {
	return &SettingRepository{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (r *SettingRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key.
func (r *SettingRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// GetBool returns the boolean stored under key, or def if unset or unparsable.
func (r *SettingRepository) GetBool(key string, def bool) bool {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean under key.
func (r *SettingRepository) SetBool(key string, value bool) error {
	return r.Set(key, strconv.FormatBool(value))
}
