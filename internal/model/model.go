package model

import "time"

// Layouts of the stored date and time-of-day strings.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Fields is the writable part of an appointment.
type Fields struct {
	Name  string
	Email string
	Phone string
	Date  string // YYYY-MM-DD
	Time  string // HH:MM
	Notes string
}

type Appointment struct {
	ID      string
	OwnerID string
	Fields
	ExternalEventID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Status string

const (
	StatusPast     Status = "past"
	StatusToday    Status = "today"
	StatusUpcoming Status = "upcoming"
)

type NotificationKind string

const (
	SameDayReminder NotificationKind = "same-day-reminder"
	NextDayReminder NotificationKind = "next-day-reminder"
	OneHourReminder NotificationKind = "one-hour-reminder"
)

// Notification is derived from an appointment and never stored.
type Notification struct {
	ID              string
	Kind            NotificationKind
	AppointmentID   string
	AppointmentName string
	// FiresAt is the appointment's own instant.
	FiresAt time.Time
}

// NotificationID is stable for a given appointment and kind.
func NotificationID(kind NotificationKind, appointmentID string) string {
	return string(kind) + ":" + appointmentID
}
