package facts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Controlfox/InnoviaHub/internal/models"
)

// stubSource counts queries so tests can assert the store was not touched.
type stubSource struct {
	bookings []models.Booking
	err      error
	calls    int
}

func (s *stubSource) BookingsForDate(date time.Time) ([]models.Booking, error) {
	s.calls++
	return s.bookings, s.err
}

func TestExtractDateISO(t *testing.T) {
	d, ok := ExtractDate("Vilka bokningar finns 2024-05-10?")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Format(DateFormat) != "2024-05-10" {
		t.Errorf("got %s", d.Format(DateFormat))
	}
}

func TestExtractDateDayMonthYear(t *testing.T) {
	d, ok := ExtractDate("Är något ledigt 10/05/2024 på eftermiddagen?")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Format(DateFormat) != "2024-05-10" {
		t.Errorf("got %s", d.Format(DateFormat))
	}
}

func TestExtractDateMonthNameDefaultsToCurrentYear(t *testing.T) {
	d, ok := ExtractDate("Finns det mötesrum den 10 maj?")
	if !ok {
		t.Fatal("expected a date")
	}
	want := fmt.Sprintf("%d-05-10", time.Now().UTC().Year())
	if d.Format(DateFormat) != want {
		t.Errorf("got %s, want %s", d.Format(DateFormat), want)
	}
}

func TestExtractDateISOTakesPrecedenceOverMonthName(t *testing.T) {
	d, ok := ExtractDate("Jämför 2024-05-10 med 3 juni")
	if !ok {
		t.Fatal("expected a date")
	}
	if d.Format(DateFormat) != "2024-05-10" {
		t.Errorf("precedence violated: got %s", d.Format(DateFormat))
	}
}

func TestExtractDateInvalidCalendarDateSwallowed(t *testing.T) {
	if _, ok := ExtractDate("boka 2024-13-45 tack"); ok {
		t.Error("expected invalid calendar date to be treated as no match")
	}
	// An invalid ISO match must not mask a later valid month-name match.
	d, ok := ExtractDate("2024-13-45 eller kanske 3 juni")
	if !ok {
		t.Fatal("expected fallback to month-name pattern")
	}
	if d.Month() != time.June || d.Day() != 3 {
		t.Errorf("got %s", d.Format(DateFormat))
	}
}

func TestExtractDateNone(t *testing.T) {
	if _, ok := ExtractDate("Vad kostar ett skrivbord?"); ok {
		t.Error("expected no date")
	}
}

func TestRenderDigestNoBookings(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	got := RenderDigest(day, nil)
	want := "No bookings found for 2024-05-10. All resources appear to be free."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderDigestGroupsInFirstSeenOrder(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	bookings := []models.Booking{
		{ResourceID: "A", StartTime: day.Add(8 * time.Hour)},
		{ResourceID: "A", StartTime: day.Add(9 * time.Hour)},
		{ResourceID: "B", StartTime: day.Add(10 * time.Hour)},
		{ResourceID: "A", StartTime: day.Add(11 * time.Hour)},
		{ResourceID: "B", StartTime: day.Add(12 * time.Hour)},
	}
	got := RenderDigest(day, bookings)
	want := "Bookings for 2024-05-10: A: 3 bookings, B: 2 bookings"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRenderDigestCountsSumToTotal(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	var bookings []models.Booking
	resources := []string{"desk-1", "room-2", "desk-1", "vr-1", "room-2", "desk-1"}
	for i, r := range resources {
		bookings = append(bookings, models.Booking{ResourceID: r, StartTime: day.Add(time.Duration(i) * time.Hour)})
	}
	got := RenderDigest(day, bookings)
	want := "Bookings for 2024-05-10: desk-1: 3 bookings, room-2: 2 bookings, vr-1: 1 bookings"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAggregatorScenario(t *testing.T) {
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	src := &stubSource{bookings: []models.Booking{
		{ResourceID: "A", StartTime: day.Add(8 * time.Hour)},
		{ResourceID: "A", StartTime: day.Add(9 * time.Hour)},
		{ResourceID: "A", StartTime: day.Add(10 * time.Hour)},
		{ResourceID: "B", StartTime: day.Add(11 * time.Hour)},
		{ResourceID: "B", StartTime: day.Add(12 * time.Hour)},
	}}
	got := NewAggregator(src).Digest("Vilka bokningar finns 2024-05-10?")
	want := "Bookings for 2024-05-10: A: 3 bookings, B: 2 bookings"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if src.calls != 1 {
		t.Errorf("expected exactly one store query, got %d", src.calls)
	}
}

func TestAggregatorNoDateSkipsStore(t *testing.T) {
	src := &stubSource{}
	got := NewAggregator(src).Digest("Vad kostar ett mötesrum per dag?")
	if got != NoDateDigest {
		t.Errorf("got %q, want %q", got, NoDateDigest)
	}
	if src.calls != 0 {
		t.Errorf("store queried %d times for a question without a date", src.calls)
	}
}

func TestAggregatorStoreFailureDegrades(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	got := NewAggregator(src).Digest("bokningar 2024-05-10")
	if got != UnavailableDigest {
		t.Errorf("got %q, want %q", got, UnavailableDigest)
	}
}
