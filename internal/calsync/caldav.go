package calsync

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// basicAuthTransport adds Basic Auth and a user agent to each request.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "appointment-scheduler/1.0")
	return t.transport.RoundTrip(req)
}

// statusRecorder remembers the last HTTP status so failures can carry it.
type statusRecorder struct {
	mu   sync.Mutex
	last int
	next http.RoundTripper
}

func (s *statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if resp != nil {
		s.mu.Lock()
		s.last = resp.StatusCode
		s.mu.Unlock()
	}
	return resp, err
}

func (s *statusRecorder) status() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last < 400 {
		return 0
	}
	return s.last
}

// CalDAV writes events into a named calendar on a CalDAV server using the
// service's own account. The per-request credential is not used.
type CalDAV struct {
	caldav       *caldav.Client
	webdav       *webdav.Client
	recorder     *statusRecorder
	logger       *zap.Logger
	username     string
	calendarName string

	mu           sync.Mutex
	calendarPath string
}

// NewCalDAV prepares a client. Calendar discovery happens on first use so a
// server that is down at startup does not block the process.
func NewCalDAV(logger *zap.Logger, endpoint, username, password, calendarName string) (*CalDAV, error) {
	rec := &statusRecorder{next: &basicAuthTransport{
		username:  username,
		password:  password,
		transport: http.DefaultTransport,
	}}
	httpClient := &http.Client{Transport: rec, Timeout: 30 * time.Second}

	cc, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("caldav client: %w", err)
	}
	wc, err := webdav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("webdav client: %w", err)
	}

	return &CalDAV{
		caldav:       cc,
		webdav:       wc,
		recorder:     rec,
		logger:       logger.Named("caldav"),
		username:     username,
		calendarName: calendarName,
	}, nil
}

func (c *CalDAV) CreateEvent(ctx context.Context, _ Credential, ev Event) (string, error) {
	if c.username == "" {
		return "", ErrNoCredential
	}

	calPath, err := c.calendar(ctx)
	if err != nil {
		return "", c.failed(err)
	}

	uid := uuid.New().String()
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//appointment-scheduler//EN")
	cal.Children = append(cal.Children, toVEvent(uid, ev))

	w, err := c.webdav.Create(ctx, path.Join(calPath, uid+".ics"))
	if err != nil {
		return "", c.failed(fmt.Errorf("create object: %w", err))
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		w.Close()
		return "", c.failed(fmt.Errorf("encode event: %w", err))
	}
	// the PUT completes on close
	if err := w.Close(); err != nil {
		return "", c.failed(fmt.Errorf("upload event: %w", err))
	}

	c.logger.Debug("created calendar event", zap.String("uid", uid))
	return uid, nil
}

func (c *CalDAV) failed(err error) error {
	return &SyncFailedError{StatusCode: c.recorder.status(), Err: err}
}

func toVEvent(uid string, ev Event) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, ev.Summary)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, ev.Start)
	ve.Props.SetDateTime(ical.PropDateTimeEnd, ev.End)
	if ev.Description != "" {
		ve.Props.SetText(ical.PropDescription, ev.Description)
	}
	for _, a := range ev.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText("mailto:" + a)
		ve.Props.Add(p)
	}
	return ve
}

// calendar finds the configured calendar once and caches its path.
func (c *CalDAV) calendar(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calendarPath != "" {
		return c.calendarPath, nil
	}

	principal, err := c.caldav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := c.caldav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find calendar home set: %w", err)
	}
	cals, err := c.caldav.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}
	for _, cal := range cals {
		if cal.Name == c.calendarName {
			c.calendarPath = cal.Path
			c.logger.Info("found calendar", zap.String("name", cal.Name), zap.String("path", cal.Path))
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar named %q", c.calendarName)
}
