// Package reminder keeps one owner's notification set current by
// re-deriving it on a cron schedule.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/schedule"
)

// DefaultSchedule re-derives once a minute.
const DefaultSchedule = "* * * * *"

type Lister interface {
	List(ctx context.Context, ownerID string) ([]model.Appointment, error)
}

type Reminder struct {
	list   Lister
	owner  string
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	apts    []model.Appointment
	current []model.Notification
	failing bool
}

func New(list Lister, ownerID string, loc *time.Location, logger *zap.Logger) *Reminder {
	return &Reminder{
		list:   list,
		owner:  ownerID,
		loc:    loc,
		logger: logger.Named("reminder").With(zap.String("owner", ownerID)),
		now:    time.Now,
	}
}

// Tick lists the owner's appointments, replaces the held notification set
// and returns the notifications that were not held before. A failed listing
// keeps the previous appointments and notifications; it is logged once per
// run of consecutive failures.
func (r *Reminder) Tick(ctx context.Context) ([]model.Notification, error) {
	apts, err := r.list.List(ctx, r.owner)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		if !r.failing {
			r.logger.Error("listing appointments failed", zap.Error(err))
		}
		r.failing = true
		return nil, fmt.Errorf("reminder: %w", err)
	}
	if r.failing {
		r.logger.Info("listing appointments recovered")
	}
	r.failing = false
	r.apts = apts

	seen := make(map[string]bool, len(r.current))
	for _, n := range r.current {
		seen[n.ID] = true
	}
	r.current = schedule.DeriveNotifications(apts, r.now().In(r.loc))

	var fresh []model.Notification
	for _, n := range r.current {
		if !seen[n.ID] {
			fresh = append(fresh, n)
		}
	}
	return fresh, nil
}

// Current is a copy of the held notification set.
func (r *Reminder) Current() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.current...)
}

// Appointments is a copy of the last successful listing.
func (r *Reminder) Appointments() []model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Appointment(nil), r.apts...)
}

// Run ticks once immediately and then on spec until ctx is done. notify is
// called for every fresh notification.
func (r *Reminder) Run(ctx context.Context, spec string, notify func(model.Notification)) error {
	if spec == "" {
		spec = DefaultSchedule
	}
	tick := func() {
		fresh, err := r.Tick(ctx)
		if err != nil {
			return
		}
		for _, n := range fresh {
			notify(n)
		}
	}

	c := cron.New(cron.WithLocation(r.loc))
	if _, err := c.AddFunc(spec, tick); err != nil {
		return fmt.Errorf("reminder schedule %q: %w", spec, err)
	}
	tick()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
