package calendar

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Service wraps the Google Calendar API for the caregiver's calendar. The
// scan pipeline uses IsFree to build availability context for reply drafts;
// the appointment executor uses AddEvent to book confirmed slots.
type Service struct {
	srv        *calendar.Service
	calendarID string
}

// NewService creates a calendar client from a service account key file.
// calendarID is usually "primary".
func NewService(ctx context.Context, credentialsFile, calendarID string) (*Service, error) {
	srv, err := calendar.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Service{srv: srv, calendarID: calendarID}, nil
}

// IsFree reports whether the calendar has no busy block inside the interval
func (s *Service) IsFree(ctx context.Context, start, end time.Time) (bool, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: s.calendarID}},
	}
	resp, err := s.srv.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("freebusy query failed: %v", err)
	}

	cal, ok := resp.Calendars[s.calendarID]
	if !ok {
		return false, fmt.Errorf("calendar %q missing from freebusy response", s.calendarID)
	}
	return len(cal.Busy) == 0, nil
}

// AddEvent creates an event on the calendar and returns its web link
func (s *Service) AddEvent(ctx context.Context, summary string, start, end time.Time, description string) (string, error) {
	event := &calendar.Event{
		Summary:     summary,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	created, err := s.srv.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create event: %v", err)
	}
	return created.HtmlLink, nil
}
