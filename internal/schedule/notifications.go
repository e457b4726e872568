package schedule

import (
	"sort"
	"time"

	"appointment-scheduler/internal/model"
)

// DeriveNotifications builds the reminder set for apts at now. The result is
// ordered by appointment instant and keeps input order for equal instants.
// Appointments whose date or time cannot be parsed produce nothing.
func DeriveNotifications(apts []model.Appointment, now time.Time) []model.Notification {
	loc := now.Location()
	tomorrow := startOfDay(now).AddDate(0, 0, 1)

	out := make([]model.Notification, 0)
	for _, a := range apts {
		t, err := Instant(a, loc)
		if err != nil {
			continue
		}

		if sameDay(t, now) && t.After(now) {
			out = append(out, notification(model.SameDayReminder, a, t))
		}
		// calendar-day check; the time of day on that day does not matter
		if sameDay(t, tomorrow) {
			out = append(out, notification(model.NextDayReminder, a, t))
		}
		// instant window (T-1h, T), both ends exclusive
		if now.After(t.Add(-time.Hour)) && now.Before(t) {
			out = append(out, notification(model.OneHourReminder, a, t))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FiresAt.Before(out[j].FiresAt)
	})
	return out
}

func notification(kind model.NotificationKind, a model.Appointment, t time.Time) model.Notification {
	return model.Notification{
		ID:              model.NotificationID(kind, a.ID),
		Kind:            kind,
		AppointmentID:   a.ID,
		AppointmentName: a.Name,
		FiresAt:         t,
	}
}
