// Package calsync mirrors appointments to an external calendar. Mirroring is
// best effort: callers get an error back and decide to log and drop it.
package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/schedule"
)

// ErrNoCredential means no calendar call was attempted.
var ErrNoCredential = errors.New("calsync: no calendar credential")

// SyncFailedError is returned when the calendar service rejected or never
// answered the request. StatusCode is 0 when no HTTP response was received.
type SyncFailedError struct {
	StatusCode int
	Err        error
}

func (e *SyncFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("calsync: sync failed: %v", e.Err)
	}
	return fmt.Sprintf("calsync: sync failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *SyncFailedError) Unwrap() error { return e.Err }

// Credential is the opaque bearer token handed over by the auth boundary.
type Credential struct {
	Token string
}

// Event is the provider independent payload of a mirrored appointment.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
}

// Syncer creates an event and returns its id on the external calendar.
type Syncer interface {
	CreateEvent(ctx context.Context, cred Credential, ev Event) (string, error)
}

// NewEvent builds the calendar payload for a.
func NewEvent(a model.Appointment, loc *time.Location) (Event, error) {
	start, end, err := schedule.EventWindow(a, loc)
	if err != nil {
		return Event{}, err
	}
	notes := a.Notes
	if notes == "" {
		notes = "No notes"
	}
	return Event{
		Summary:     "Appointment with " + a.Name,
		Description: fmt.Sprintf("Email: %s\nPhone: %s\nNotes: %s", a.Email, a.Phone, notes),
		Start:       start,
		End:         end,
		TimeZone:    loc.String(),
		Attendees:   []string{a.Email},
	}, nil
}

// Disabled is used when no calendar provider is configured.
type Disabled struct{}

func (Disabled) CreateEvent(context.Context, Credential, Event) (string, error) {
	return "", ErrNoCredential
}
