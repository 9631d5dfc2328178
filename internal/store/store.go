// Package store provides storage backends for receptionist profiles and
// resource bookings.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL implementations selected by DSN.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// Store is the persistence interface consumed by the API server and the
// fact aggregator.
type Store interface {
	// GetProfile returns the stored profile for userID, or nil if none exists.
	GetProfile(userID string) (*models.Profile, error)
	// UpsertProfile inserts or updates a profile. The profile is normalized
	// (default tone/style, clamped emoji level) before it is written.
	UpsertProfile(p models.Profile) (models.Profile, error)
	// BookingsForDate returns all bookings whose start time falls on the
	// given calendar date, ordered ascending by start time.
	BookingsForDate(date time.Time) ([]models.Booking, error)
	// AddBooking records a booking. Used for seeding and by tests.
	AddBooking(b models.Booking) error
	// Close releases any underlying resources.
	Close() error
}

// SameDate reports whether t falls on the calendar date of day, ignoring
// the time of day. Both values are compared in day's location.
func SameDate(t, day time.Time) bool {
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// InMemoryStore is a mutex-guarded in-memory implementation of Store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	bookings []models.Booking
	nextID   int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[string]models.Profile), nextID: 1}
}

func (s *InMemoryStore) GetProfile(userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *InMemoryStore) UpsertProfile(p models.Profile) (models.Profile, error) {
	p.Normalize()
	p.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *InMemoryStore) BookingsForDate(date time.Time) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if SameDate(b.StartTime, date) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *InMemoryStore) AddBooking(b models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == 0 {
		b.ID = s.nextID
		s.nextID++
	}
	s.bookings = append(s.bookings, b)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
