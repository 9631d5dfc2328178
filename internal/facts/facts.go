// Package facts turns a free-text question into a deterministic summary of
// same-day resource bookings.
//
// Date extraction and digest rendering are plain exported functions so they
// can be tested directly; the Aggregator combines them with a booking store.
package facts

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// Fixed digest sentences. DateFormat is the calendar-date rendering used in
// every digest.
const (
	DateFormat = "2006-01-02"
	// NoDateDigest is returned when no date is recognized in the question.
	NoDateDigest = "Could not interpret the date in the question. No booking data was retrieved."
	// UnavailableDigest is returned when the booking store cannot be read.
	UnavailableDigest = "Booking data is currently unavailable."
)

// groupSeparator joins per-resource counts in a rendered digest.
const groupSeparator = ", "

// Date patterns tried in fixed precedence order. The first pattern that
// matches and parses to a valid calendar date wins.
var (
	isoPattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dayMonthYear = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)
	dayMonthName = regexp.MustCompile(`(?i)(\d{1,2})[^\d]*?(januari|februari|mars|april|maj|juni|juli|augusti|september|oktober|november|december)`)
)

// monthNumbers maps Swedish month names to their calendar month.
var monthNumbers = map[string]time.Month{
	"januari":   time.January,
	"februari":  time.February,
	"mars":      time.March,
	"april":     time.April,
	"maj":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"augusti":   time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// ExtractDate finds at most one calendar date in the question, trying ISO
// YYYY-MM-DD first, then DD/MM/YYYY, then "<day> <Swedish month name>" with
// the year defaulted to the current year. A matched but invalid value (such
// as 2024-13-45) is treated as no match for that pattern.
func ExtractDate(question string) (time.Time, bool) {
	if m := isoPattern.FindStringSubmatch(question); m != nil {
		if d, ok := makeDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := dayMonthYear.FindStringSubmatch(question); m != nil {
		if d, ok := makeDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}
	if m := dayMonthName.FindStringSubmatch(question); m != nil {
		month := monthNumbers[strings.ToLower(m[2])]
		year := strconv.Itoa(time.Now().UTC().Year())
		if d, ok := makeDate(year, strconv.Itoa(int(month)), m[1]); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// makeDate builds a UTC date from decimal components, rejecting values that
// do not survive a calendar round trip (time.Date normalizes overflow).
func makeDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(mo) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// RenderDigest formats the booking summary for one date. Bookings must
// already be ordered ascending by start time; resources appear in
// first-seen order with their booking counts.
func RenderDigest(date time.Time, bookings []models.Booking) string {
	day := date.Format(DateFormat)
	if len(bookings) == 0 {
		return fmt.Sprintf("No bookings found for %s. All resources appear to be free.", day)
	}

	counts := make(map[string]int)
	var order []string
	for _, b := range bookings {
		if _, seen := counts[b.ResourceID]; !seen {
			order = append(order, b.ResourceID)
		}
		counts[b.ResourceID]++
	}

	groups := make([]string, 0, len(order))
	for _, id := range order {
		groups = append(groups, fmt.Sprintf("%s: %d bookings", id, counts[id]))
	}
	return fmt.Sprintf("Bookings for %s: %s", day, strings.Join(groups, groupSeparator))
}

// BookingSource is the minimal booking-store interface the aggregator reads.
type BookingSource interface {
	BookingsForDate(date time.Time) ([]models.Booking, error)
}

// Aggregator derives a fact digest for a question from a booking store.
type Aggregator struct {
	bookings BookingSource
}

// NewAggregator creates an Aggregator reading from the given source.
func NewAggregator(src BookingSource) *Aggregator {
	return &Aggregator{bookings: src}
}

// Digest returns the booking digest for the date mentioned in the question.
// It never fails: an unrecognized date yields NoDateDigest without touching
// the store, and a store failure yields UnavailableDigest.
func (a *Aggregator) Digest(question string) string {
	date, ok := ExtractDate(question)
	if !ok {
		slog.Debug("Aggregator.Digest: no date recognized in question")
		return NoDateDigest
	}
	bookings, err := a.bookings.BookingsForDate(date)
	if err != nil {
		slog.Error("Aggregator.Digest: booking query failed", "error", err, "date", date.Format(DateFormat))
		return UnavailableDigest
	}
	return RenderDigest(date, bookings)
}
