// Package store provides storage backends for receptionist profiles and
// resource bookings.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/Controlfox/InnoviaHub/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetProfile(userID string) (*models.Profile, error) {
	row := s.db.QueryRow(`SELECT user_id, assistant_name, tone, style, emoji, updated_at FROM user_ai_profiles WHERE user_id = $1`, userID)
	p, err := scanProfileRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetProfile failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query profile for %s: %w", userID, err)
	}
	return p, nil
}

func (s *PostgresStore) UpsertProfile(p models.Profile) (models.Profile, error) {
	p.Normalize()
	p.UpdatedAt = time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO user_ai_profiles (user_id, assistant_name, tone, style, emoji, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET assistant_name = EXCLUDED.assistant_name, tone = EXCLUDED.tone, style = EXCLUDED.style, emoji = EXCLUDED.emoji, updated_at = EXCLUDED.updated_at`,
		p.UserID, nilIfEmpty(p.AssistantName), p.Tone, p.Style, p.Emoji, p.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore UpsertProfile failed", "error", err, "user_id", p.UserID)
		return models.Profile{}, fmt.Errorf("failed to upsert profile for %s: %w", p.UserID, err)
	}
	slog.Debug("PostgresStore UpsertProfile succeeded", "user_id", p.UserID)
	return p, nil
}

func (s *PostgresStore) BookingsForDate(date time.Time) ([]models.Booking, error) {
	start, end := dayBounds(date)
	rows, err := s.db.Query(`SELECT id, resource_id, start_time FROM bookings WHERE start_time >= $1 AND start_time < $2 ORDER BY start_time ASC`, start, end)
	if err != nil {
		slog.Error("PostgresStore BookingsForDate query failed", "error", err)
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (s *PostgresStore) AddBooking(b models.Booking) error {
	_, err := s.db.Exec(`INSERT INTO bookings (resource_id, start_time) VALUES ($1, $2)`, b.ResourceID, b.StartTime)
	if err != nil {
		slog.Error("PostgresStore AddBooking failed", "error", err, "resource_id", b.ResourceID)
		return fmt.Errorf("failed to insert booking for %s: %w", b.ResourceID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
