package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// dayBounds returns the [start, end) instants covering the calendar date of
// the given time, in its location.
func dayBounds(date time.Time) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// scanProfileRow scans a profile from a single sql.Row.
func scanProfileRow(row *sql.Row) (*models.Profile, error) {
	var p models.Profile
	var assistantName sql.NullString
	if err := row.Scan(&p.UserID, &assistantName, &p.Tone, &p.Style, &p.Emoji, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.AssistantName = assistantName.String
	return &p, nil
}

// collectBookings drains booking rows in query order.
func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.StartTime); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate booking rows: %w", err)
	}
	return bookings, nil
}
