package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/realtime"
	"github.com/samber/lo"
)

// Viewer identifies the caller of a read. A nil *Viewer is an anonymous caller.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// EventDetails is a single event with its attendee list.
type EventDetails struct {
	Event *database.Event
	// Attendees holds every RSVP that is not "not_attending", newest first.
	Attendees     []database.RSVP
	AttendeeCount int
	// AdminHidden is set when an admin reads an event that is not active.
	AdminHidden bool
}

// CreateEventInput holds the user supplied fields of a new event.
type CreateEventInput struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
	Capacity    int
	Latitude    *float64
	Longitude   *float64
	ImageURL    string
}

func (in *CreateEventInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Title == "":
		return validationErrorf("title is required")
	case in.Date.IsZero():
		return validationErrorf("date is required")
	case in.Capacity < 1:
		return validationErrorf("capacity must be at least 1")
	case in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90):
		return validationErrorf("latitude must be between -90 and 90")
	case in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180):
		return validationErrorf("longitude must be between -180 and 180")
	}
	return nil
}

// ListEvents returns the active events matching the filter, soonest first.
func (e *Engine) ListEvents(ctx context.Context, filter database.EventFilter) ([]database.Event, error) {
	return e.db.ListActiveEvents(ctx, filter)
}

// GetEvent returns an event with its attendees. Events that are not active are only
// visible to admins; everybody else gets ErrEventHidden.
func (e *Engine) GetEvent(ctx context.Context, eventID uint, viewer *Viewer) (*EventDetails, error) {
	event, err := e.db.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}

	details := &EventDetails{Event: event}
	if event.Status != database.EventStatusActive {
		if viewer == nil || !viewer.IsAdmin {
			return nil, ErrEventHidden
		}
		details.AdminHidden = true
	}

	attendees, err := e.db.ListAttendees(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendees: %w", err)
	}
	details.Attendees = attendees
	details.AttendeeCount = lo.CountBy(attendees, func(r database.RSVP) bool {
		return r.Status == database.RSVPStatusAttending
	})

	return details, nil
}

// CreateEvent stores a new active event owned by the user and announces it to connected clients.
func (e *Engine) CreateEvent(ctx context.Context, creator *Viewer, in CreateEventInput) (*database.Event, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !creator.IsAdmin && !e.settingEnabled(ctx, database.SettingEventCreation) {
		return nil, ErrEventCreationDisabled
	}

	event := &database.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Date:        in.Date.UTC(),
		Capacity:    in.Capacity,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		ImageURL:    in.ImageURL,
		Status:      database.EventStatusActive,
		CreatedBy:   &creator.UserID,
	}
	if err := e.db.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	log.Info("event created", "event_id", event.ID, "user_id", creator.UserID)
	e.broadcast(realtime.NewEvent(event.ID))
	return event, nil
}

// SetEventStatus changes the lifecycle status of an event.
func (e *Engine) SetEventStatus(ctx context.Context, eventID uint, status database.EventStatus) error {
	if !status.Valid() {
		return validationErrorf("invalid status %q", status)
	}
	if err := e.db.UpdateEventStatus(ctx, eventID, status); err != nil {
		return notFound(err, ErrEventNotFound)
	}
	return nil
}

// UnhideEvent makes a hidden event active again.
func (e *Engine) UnhideEvent(ctx context.Context, eventID uint) error {
	return e.SetEventStatus(ctx, eventID, database.EventStatusActive)
}

// DeleteEvent permanently removes an event and its RSVPs. Reports against it are kept.
func (e *Engine) DeleteEvent(ctx context.Context, eventID uint) error {
	if err := e.db.DeleteEvent(ctx, eventID); err != nil {
		return notFound(err, ErrEventNotFound)
	}
	log.Info("event deleted", "event_id", eventID)
	return nil
}

// ListAttendees returns the RSVPs of an event for the admin attendee view.
func (e *Engine) ListAttendees(ctx context.Context, eventID uint) ([]database.RSVP, error) {
	if _, err := e.db.GetEventByID(ctx, eventID); err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return e.db.ListAttendees(ctx, eventID)
}
