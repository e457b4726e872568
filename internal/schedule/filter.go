package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"appointment-scheduler/internal/model"
)

type Period string

const (
	PeriodAll      Period = "all"
	PeriodToday    Period = "today"
	PeriodUpcoming Period = "upcoming"
	PeriodPast     Period = "past"
)

// UpcomingWindow bounds the upcoming period of the list view.
const UpcomingWindow = 7 * 24 * time.Hour

// ParsePeriod accepts the period names used by clients; empty means all.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodAll, nil
	case PeriodAll, PeriodToday, PeriodUpcoming, PeriodPast:
		return p, nil
	default:
		return "", fmt.Errorf("unknown period %q", s)
	}
}

// Filter returns the appointments matching term and period, sorted by date
// and then time. Periods compare the appointment's date at local midnight,
// not its full instant, so an appointment later today is in "today" and
// also counts as "past" once the day has begun.
func Filter(apts []model.Appointment, term string, period Period, now time.Time) []model.Appointment {
	loc := now.Location()
	today := now.Format(model.DateLayout)
	weekAhead := now.Add(UpcomingWindow)

	out := make([]model.Appointment, 0, len(apts))
	for _, a := range apts {
		if !matches(a, term) {
			continue
		}

		switch period {
		case PeriodToday:
			if a.Date != today {
				continue
			}
		case PeriodUpcoming, PeriodPast:
			d, err := time.ParseInLocation(model.DateLayout, a.Date, loc)
			if err != nil {
				continue
			}
			if period == PeriodUpcoming && !(d.After(now) && d.Before(weekAhead)) {
				continue
			}
			if period == PeriodPast && !d.Before(now) {
				continue
			}
		}
		out = append(out, a)
	}

	// YYYY-MM-DD and HH:MM order lexically
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}

// OnDate keeps the appointments booked on date (YYYY-MM-DD), in input
// order. An empty date keeps everything.
func OnDate(apts []model.Appointment, date string) []model.Appointment {
	if date == "" {
		return apts
	}
	out := make([]model.Appointment, 0, len(apts))
	for _, a := range apts {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

func matches(a model.Appointment, term string) bool {
	if term == "" {
		return true
	}
	lower := strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.Name), lower) ||
		strings.Contains(strings.ToLower(a.Email), lower) ||
		strings.Contains(a.Phone, term)
}
