// Package service orchestrates the appointment store and the external
// calendar mirror.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"appointment-scheduler/internal/calsync"
	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/schedule"
	"appointment-scheduler/internal/store"
)

var (
	// ErrStoreUnavailable wraps every store failure other than not found.
	ErrStoreUnavailable = errors.New("appointment store unavailable")
	ErrNotFound         = errors.New("appointment not found")
)

// Store is the system of record for appointments.
type Store interface {
	AddAppointment(ctx context.Context, ownerID string, f model.Fields) (model.Appointment, error)
	UpdateAppointment(ctx context.Context, id, ownerID string, f model.Fields) error
	DeleteAppointment(ctx context.Context, id, ownerID string) error
	QueryAppointments(ctx context.Context, ownerID string) ([]model.Appointment, error)
	GetAppointment(ctx context.Context, id, ownerID string) (model.Appointment, error)
	SetExternalEventID(ctx context.Context, id, externalID string) error
}

type Service struct {
	store  Store
	sync   calsync.Syncer
	loc    *time.Location
	logger *zap.Logger
}

func New(st Store, sync calsync.Syncer, loc *time.Location, logger *zap.Logger) *Service {
	if sync == nil {
		sync = calsync.Disabled{}
	}
	return &Service{store: st, sync: sync, loc: loc, logger: logger.Named("appointments")}
}

// Location is the fixed zone appointment dates are read in.
func (s *Service) Location() *time.Location { return s.loc }

// Create stores the appointment and then tries once to mirror it. A failed
// mirror leaves ExternalEventID empty and is not an error for the caller.
func (s *Service) Create(ctx context.Context, f model.Fields, ownerID string, cred calsync.Credential) (model.Appointment, error) {
	a, err := s.store.AddAppointment(ctx, ownerID, f)
	if err != nil {
		return model.Appointment{}, storeErr("create", err)
	}

	extID, err := s.mirror(ctx, a, cred)
	if err != nil {
		// dropped on purpose: the appointment exists, the mirror does not
		s.logger.Warn("calendar sync failed",
			zap.String("owner", ownerID),
			zap.String("appointment", a.ID),
			zap.Error(err),
		)
		return a, nil
	}

	if err := s.store.SetExternalEventID(ctx, a.ID, extID); err != nil {
		s.logger.Warn("recording external event id failed",
			zap.String("appointment", a.ID),
			zap.String("event", extID),
			zap.Error(err),
		)
		return a, nil
	}
	a.ExternalEventID = extID
	return a, nil
}

// mirror makes the single sync attempt for a.
func (s *Service) mirror(ctx context.Context, a model.Appointment, cred calsync.Credential) (string, error) {
	ev, err := calsync.NewEvent(a, s.loc)
	if err != nil {
		return "", err
	}
	return s.sync.CreateEvent(ctx, cred, ev)
}

// Update writes through to the store. The mirrored event is not touched and
// may drift from the appointment.
func (s *Service) Update(ctx context.Context, id, ownerID string, f model.Fields) error {
	return storeErr("update", s.store.UpdateAppointment(ctx, id, ownerID, f))
}

// Delete removes the appointment. The mirrored event is left in place.
func (s *Service) Delete(ctx context.Context, id, ownerID string) error {
	return storeErr("delete", s.store.DeleteAppointment(ctx, id, ownerID))
}

func (s *Service) Get(ctx context.Context, id, ownerID string) (model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id, ownerID)
	if err != nil {
		return model.Appointment{}, storeErr("get", err)
	}
	return a, nil
}

// List returns ownerID's appointments in ascending date order.
func (s *Service) List(ctx context.Context, ownerID string) ([]model.Appointment, error) {
	apts, err := s.store.QueryAppointments(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return apts, nil
}

// Notifications derives ownerID's reminders at now.
func (s *Service) Notifications(ctx context.Context, ownerID string, now time.Time) ([]model.Notification, error) {
	apts, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return schedule.DeriveNotifications(apts, now.In(s.loc)), nil
}

func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
}
