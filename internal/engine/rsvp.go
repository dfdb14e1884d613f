package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/realtime"
	"gorm.io/gorm"
)

// RSVPResult is the outcome of a successful RSVP submission.
type RSVPResult struct {
	Status            database.RSVPStatus
	RemainingCapacity int
}

// SubmitRSVP records the user's response to an event. Moving into "attending" is rejected
// with ErrCapacityExceeded once the event is full, unless the user already attends.
// Every successful submission is broadcast, including unchanged re-submissions.
func (e *Engine) SubmitRSVP(ctx context.Context, eventID, userID uint, status database.RSVPStatus) (*RSVPResult, error) {
	if !status.Valid() {
		return nil, validationErrorf("invalid RSVP status %q", status)
	}

	event, err := e.db.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}

	var previous database.RSVPStatus
	existing, err := e.db.GetRSVP(ctx, eventID, userID)
	switch {
	case err == nil:
		previous = existing.Status
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load current rsvp: %w", err)
	}

	written, err := e.db.UpsertRSVPWithinCapacity(ctx, eventID, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update rsvp: %w", err)
	}
	if !written {
		log.Debug("rsvp rejected, event is full", "event_id", eventID, "user_id", userID)
		return nil, ErrCapacityExceeded
	}

	attending, err := e.db.CountAttending(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attendees: %w", err)
	}
	remaining := event.Capacity - int(attending)

	log.Debug("rsvp updated", "event_id", eventID, "user_id", userID, "from", previous, "to", status, "remaining", remaining)
	e.broadcast(realtime.RSVPUpdate(eventID, userID, string(status), remaining))

	return &RSVPResult{
		Status:            status,
		RemainingCapacity: remaining,
	}, nil
}

// GetRSVPStatus returns the user's RSVP status for the event, or nil if they never responded.
func (e *Engine) GetRSVPStatus(ctx context.Context, eventID, userID uint) (*database.RSVPStatus, error) {
	rsvp, err := e.db.GetRSVP(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rsvp.Status, nil
}
