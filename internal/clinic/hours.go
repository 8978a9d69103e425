package clinic

import (
	"fmt"
	"time"
)

// Location resolves a clinic's IANA timezone name. Unknown or empty zones are
// an error: business-hours and first-contact decisions must never silently
// fall back to the host process's timezone.
func Location(timezone string) (*time.Location, error) {
	if timezone == "" {
		return nil, fmt.Errorf("clinic: timezone is required")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("clinic: invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// IsOpen reports whether the clinic is open at the given instant, evaluated
// in the clinic's local timezone. The open bound is inclusive and the close
// bound exclusive: open <= t < close. A nil day entry or a malformed bound
// means closed.
func IsOpen(hours BusinessHours, loc *time.Location, at time.Time) bool {
	localTime := at.In(loc)

	day := hours.GetHoursForDay(localTime.Weekday())
	if day == nil {
		return false
	}

	openMinutes, err := parseClock(day.Open)
	if err != nil {
		return false
	}
	closeMinutes, err := parseClock(day.Close)
	if err != nil {
		return false
	}

	currentMinutes := localTime.Hour()*60 + localTime.Minute()
	return currentMinutes >= openMinutes && currentMinutes < closeMinutes
}

// NextOpenTime returns when the clinic next opens, in the clinic's timezone.
// Returns the instant itself if the clinic is already open, and the zero time
// when no weekday has hours configured.
func NextOpenTime(hours BusinessHours, loc *time.Location, at time.Time) time.Time {
	if !hours.HasAnyHours() {
		return time.Time{}
	}

	localTime := at.In(loc)
	if IsOpen(hours, loc, at) {
		return localTime
	}

	for i := 0; i < 8; i++ {
		checkDate := localTime.AddDate(0, 0, i)
		day := hours.GetHoursForDay(checkDate.Weekday())
		if day == nil {
			continue
		}

		openMinutes, err := parseClock(day.Open)
		if err != nil {
			continue
		}

		openDateTime := time.Date(
			checkDate.Year(), checkDate.Month(), checkDate.Day(),
			openMinutes/60, openMinutes%60, 0, 0, loc,
		)
		if openDateTime.After(localTime) {
			return openDateTime
		}
	}

	return time.Time{}
}

// parseClock converts an "HH:MM" string to minutes since midnight.
func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("clinic: invalid clock value %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
