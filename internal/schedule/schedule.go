// Package schedule holds the time rules shared by the list, calendar and
// notification views. Every function is pure: the caller supplies now, and
// now's location is the fixed zone all dates are read in.
package schedule

import (
	"fmt"
	"time"

	"appointment-scheduler/internal/model"
)

// EventDuration is how long a mirrored calendar event lasts.
const EventDuration = time.Hour

// Instant combines the appointment's date and time-of-day in loc.
func Instant(a model.Appointment, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(model.DateLayout+" "+model.TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointment %s: bad date/time %q %q: %w", a.ID, a.Date, a.Time, err)
	}
	return t, nil
}

// EventWindow is the start and end of the calendar event mirroring a.
func EventWindow(a model.Appointment, loc *time.Location) (time.Time, time.Time, error) {
	start, err := Instant(a, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.Add(EventDuration), nil
}

// Classify reports whether a is past, today or upcoming relative to now.
func Classify(a model.Appointment, now time.Time) model.Status {
	t, err := Instant(a, now.Location())
	if err != nil || t.Before(now) {
		return model.StatusPast
	}
	if sameDay(t, now) {
		return model.StatusToday
	}
	return model.StatusUpcoming
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfDay is local midnight of t's calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
