package services

import (
	"strings"
	"time"

	"github.com/thereayou/gatherly/internal/models"
)

const (
	clockLayout   = "03:04 PM"
	dateLayout    = "2006-01-02"
	clock24Layout = "15:04"
)

// ParseEventClock parses a time of day written as "hh:mm AM" (case and
// leading zero optional) or "HH:mm".
func ParseEventClock(s string) (hour, minute int, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	for _, layout := range []string{"3:04 PM", "3:04PM", clock24Layout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Hour(), t.Minute(), nil
		}
	}
	return 0, 0, invalid("event time %q", s)
}

// NormalizeEventClock rewrites any accepted time of day into the stored
// "hh:mm AM" form.
func NormalizeEventClock(s string) (string, error) {
	hour, minute, err := ParseEventClock(s)
	if err != nil {
		return "", err
	}
	return time.Date(2000, 1, 1, hour, minute, 0, 0, time.UTC).Format(clockLayout), nil
}

// ParseEventDate parses a "YYYY-MM-DD" calendar day. Days are stored as UTC
// midnight.
func ParseEventDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalid("event date %q", s)
	}
	return d, nil
}

// EventInstant combines the event's calendar day with its time of day in loc.
func EventInstant(event *models.Event, loc *time.Location) (time.Time, error) {
	hour, minute, err := ParseEventClock(event.Time)
	if err != nil {
		return time.Time{}, err
	}
	day := event.Date.UTC()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}
