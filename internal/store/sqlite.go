// Package store provides storage backends for receptionist profiles and
// resource bookings.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/Controlfox/InnoviaHub/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetProfile(userID string) (*models.Profile, error) {
	row := s.db.QueryRow(`SELECT user_id, assistant_name, tone, style, emoji, updated_at FROM user_ai_profiles WHERE user_id = ?`, userID)
	p, err := scanProfileRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetProfile failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query profile for %s: %w", userID, err)
	}
	return p, nil
}

func (s *SQLiteStore) UpsertProfile(p models.Profile) (models.Profile, error) {
	p.Normalize()
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO user_ai_profiles (user_id, assistant_name, tone, style, emoji, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET assistant_name = excluded.assistant_name, tone = excluded.tone, style = excluded.style, emoji = excluded.emoji, updated_at = excluded.updated_at`,
		p.UserID, nilIfEmpty(p.AssistantName), p.Tone, p.Style, p.Emoji, p.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore UpsertProfile failed", "error", err, "user_id", p.UserID)
		return models.Profile{}, fmt.Errorf("failed to upsert profile for %s: %w", p.UserID, err)
	}
	slog.Debug("SQLiteStore UpsertProfile succeeded", "user_id", p.UserID)
	return p, nil
}

func (s *SQLiteStore) BookingsForDate(date time.Time) ([]models.Booking, error) {
	start, end := dayBounds(date)
	rows, err := s.db.Query(`SELECT id, resource_id, start_time FROM bookings WHERE start_time >= ? AND start_time < ? ORDER BY start_time ASC`, start, end)
	if err != nil {
		slog.Error("SQLiteStore BookingsForDate query failed", "error", err)
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *SQLiteStore) AddBooking(b models.Booking) error {
	_, err := s.db.Exec(`INSERT INTO bookings (resource_id, start_time) VALUES (?, ?)`, b.ResourceID, b.StartTime)
	if err != nil {
		slog.Error("SQLiteStore AddBooking failed", "error", err, "resource_id", b.ResourceID)
		return fmt.Errorf("failed to insert booking for %s: %w", b.ResourceID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
