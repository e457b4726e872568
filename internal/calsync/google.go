package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Google inserts events into a Google calendar on behalf of the caller
// whose OAuth access token arrives with each request.
type Google struct {
	calendarID string
	endpoint   string
	logger     *zap.Logger
}

// NewGoogle returns a Google syncer. calendarID defaults to "primary";
// endpoint overrides the API base URL and is empty in production.
func NewGoogle(logger *zap.Logger, calendarID, endpoint string) *Google {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Google{calendarID: calendarID, endpoint: endpoint, logger: logger.Named("google")}
}

func (g *Google) CreateEvent(ctx context.Context, cred Credential, ev Event) (string, error) {
	if cred.Token == "" {
		return "", ErrNoCredential
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Token, TokenType: "Bearer"})
	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", &SyncFailedError{Err: fmt.Errorf("calendar service: %w", err)}
	}

	attendees := make([]*calendar.EventAttendee, 0, len(ev.Attendees))
	for _, email := range ev.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := svc.Events.Insert(g.calendarID, &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: ev.TimeZone},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: ev.TimeZone},
		Attendees:   attendees,
	}).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) {
			return "", &SyncFailedError{StatusCode: gerr.Code, Err: err}
		}
		return "", &SyncFailedError{Err: err}
	}

	g.logger.Debug("created calendar event", zap.String("calendar", g.calendarID), zap.String("event", created.Id))
	return created.Id, nil
}
