package clinic

import (
	"testing"
	"time"
)

func saoPaulo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := Location("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	return loc
}

func weekdayHours() BusinessHours {
	day := &DayHours{Open: "08:00", Close: "18:00"}
	return BusinessHours{
		Monday:    day,
		Tuesday:   day,
		Wednesday: day,
		Thursday:  day,
		Friday:    day,
	}
}

func TestIsOpen(t *testing.T) {
	loc := saoPaulo(t)
	hours := weekdayHours()

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{
			name: "Monday mid-morning is open",
			at:   time.Date(2025, 6, 2, 9, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "Monday evening is closed",
			at:   time.Date(2025, 6, 2, 19, 0, 0, 0, loc),
			want: false,
		},
		{
			name: "exactly at open is open",
			at:   time.Date(2025, 6, 2, 8, 0, 0, 0, loc),
			want: true,
		},
		{
			name: "exactly at close is closed",
			at:   time.Date(2025, 6, 2, 18, 0, 0, 0, loc),
			want: false,
		},
		{
			name: "one minute before close is open",
			at:   time.Date(2025, 6, 2, 17, 59, 0, 0, loc),
			want: true,
		},
		{
			name: "Saturday is closed",
			at:   time.Date(2025, 6, 7, 10, 0, 0, 0, loc),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(hours, loc, tt.at); got != tt.want {
				t.Errorf("IsOpen(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpenEvaluatesInClinicTimezone(t *testing.T) {
	loc := saoPaulo(t)
	hours := weekdayHours()

	// Monday 20:00 UTC is Monday 17:00 in São Paulo (UTC-3): still open
	// locally even though it is past 18:00 UTC.
	at := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	if !IsOpen(hours, loc, at) {
		t.Error("expected open: 20:00 UTC is 17:00 local")
	}

	// Monday 22:00 UTC is Monday 19:00 local: closed.
	at = time.Date(2025, 6, 2, 22, 0, 0, 0, time.UTC)
	if IsOpen(hours, loc, at) {
		t.Error("expected closed: 22:00 UTC is 19:00 local")
	}
}

func TestIsOpenMalformedBounds(t *testing.T) {
	loc := saoPaulo(t)
	hours := BusinessHours{
		Monday: &DayHours{Open: "8am", Close: "18:00"},
	}

	at := time.Date(2025, 6, 2, 10, 0, 0, 0, loc)
	if IsOpen(hours, loc, at) {
		t.Error("expected malformed open bound to mean closed")
	}
}

func TestLocationRejectsUnknownZones(t *testing.T) {
	if _, err := Location(""); err == nil {
		t.Error("expected error for empty timezone")
	}
	if _, err := Location("America/Nowhere"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestNextOpenTime(t *testing.T) {
	loc := saoPaulo(t)
	hours := weekdayHours()

	// Friday 19:00 local: next open is Monday 08:00.
	friday := time.Date(2025, 6, 6, 19, 0, 0, 0, loc)
	next := NextOpenTime(hours, loc, friday)
	if next.Weekday() != time.Monday {
		t.Errorf("expected Monday, got %s", next.Weekday())
	}
	if next.Hour() != 8 || next.Minute() != 0 {
		t.Errorf("expected 08:00, got %02d:%02d", next.Hour(), next.Minute())
	}

	// Already open: returns the instant itself.
	monday := time.Date(2025, 6, 2, 9, 30, 0, 0, loc)
	next = NextOpenTime(hours, loc, monday)
	if !next.Equal(monday) {
		t.Errorf("expected current instant when open, got %v", next)
	}

	// No hours at all: zero time.
	if next := NextOpenTime(BusinessHours{}, loc, monday); !next.IsZero() {
		t.Errorf("expected zero time for empty hours, got %v", next)
	}
}
