package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// EventStatus represents the lifecycle state of an event.
type EventStatus string

const (
	// EventStatusActive events are publicly visible.
	EventStatusActive EventStatus = "active"
	// EventStatusDraft events are only visible to admins.
	EventStatusDraft EventStatus = "draft"
	// EventStatusArchived events are hidden, usually by moderation.
	EventStatusArchived EventStatus = "archived"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusActive, EventStatusDraft, EventStatusArchived:
		return true
	}
	return false
}

// Event is a scheduled happening users can RSVP to.
type Event struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"not null"`
	Description string
	Location    string    `gorm:"index"`
	Date        time.Time `gorm:"not null;index"`
	Capacity    int       `gorm:"not null"`
	Latitude    *float64
	Longitude   *float64
	ImageURL    string
	Status      EventStatus `gorm:"not null;index"`
	CreatedBy   *uint       `gorm:"index"`
	Creator     *User       `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL;"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	// Date restricts events to the calendar day (UTC) of the given time.
	Date *time.Time
	// Location is matched as a case-insensitive substring.
	Location string
}

// EventSummary is an event row enriched for the admin listings.
type EventSummary struct {
	Event
	CreatorName   *string
	AttendeeCount int64
}

// EventDB defines the interface for event-related database operations.
type EventDB interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, id uint) (*Event, error)
	ListActiveEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	ListEventSummaries(ctx context.Context, page Pagination) ([]EventSummary, int64, error)
	ListHiddenEvents(ctx context.Context) ([]EventSummary, error)
	UpdateEventStatus(ctx context.Context, id uint, status EventStatus) error
	DeleteEvent(ctx context.Context, id uint) error
	ListAttendees(ctx context.Context, eventID uint) ([]RSVP, error)
}

func (c *Client) CreateEvent(ctx context.Context, event *Event) error {
	if err := c.db.WithContext(ctx).Create(event).Error; err != nil {
		log.Error("failed to create event", "error", err)
		return err
	}
	return nil
}

func (c *Client) GetEventByID(ctx context.Context, id uint) (*Event, error) {
	var event Event
	if err := c.db.WithContext(ctx).Preload("Creator").First(&event, id).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get event by ID", "error", err)
		}
		return nil, err
	}
	return &event, nil
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (c *Client) ListActiveEvents(ctx context.Context, filter EventFilter) ([]Event, error) {
	query := c.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ?", EventStatusActive)

	if filter.Date != nil {
		day := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		query = query.Where("date >= ? AND date < ?", day, day.AddDate(0, 0, 1))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		query = query.Where(`LOWER(location) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(strings.ToLower(loc))+"%")
	}

	var events []Event
	if err := query.Order("date ASC").Find(&events).Error; err != nil {
		log.Error("failed to list events", "error", err)
		return nil, err
	}
	return events, nil
}

const eventSummarySelect = `
	SELECT e.*,
		u.name AS creator_name,
		(SELECT COUNT(*) FROM rsvps r WHERE r.event_id = e.id AND r.status = 'attending') AS attendee_count
	FROM events e
	LEFT JOIN users u ON u.id = e.created_by
`

func (c *Client) ListEventSummaries(ctx context.Context, page Pagination) ([]EventSummary, int64, error) {
	page = page.Normalize()

	var total int64
	if err := c.db.WithContext(ctx).Model(&Event{}).Count(&total).Error; err != nil {
		log.Error("failed to count events", "error", err)
		return nil, 0, err
	}

	var events []EventSummary
	if err := c.db.WithContext(ctx).
		Raw(eventSummarySelect+" ORDER BY e.created_at DESC LIMIT ? OFFSET ?", page.Limit, page.Offset()).
		Scan(&events).Error; err != nil {
		log.Error("failed to list event summaries", "error", err)
		return nil, 0, err
	}
	return events, total, nil
}

func (c *Client) ListHiddenEvents(ctx context.Context) ([]EventSummary, error) {
	var events []EventSummary
	if err := c.db.WithContext(ctx).
		Raw(eventSummarySelect+" WHERE e.status = ? ORDER BY e.updated_at DESC", EventStatusArchived).
		Scan(&events).Error; err != nil {
		log.Error("failed to list hidden events", "error", err)
		return nil, err
	}
	return events, nil
}

func (c *Client) UpdateEventStatus(ctx context.Context, id uint, status EventStatus) error {
	result := c.db.WithContext(ctx).Model(&Event{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		log.Error("failed to update event status", "event_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteEvent permanently removes the event. Its RSVPs are removed by the foreign key cascade,
// reports keep pointing at the missing event.
func (c *Client) DeleteEvent(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&Event{}, id)
	if result.Error != nil {
		log.Error("failed to delete event", "event_id", id, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAttendees returns every RSVP that is not "not_attending", newest first.
func (c *Client) ListAttendees(ctx context.Context, eventID uint) ([]RSVP, error) {
	var rsvps []RSVP
	if err := c.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ? AND status <> ?", eventID, RSVPStatusNotAttending).
		Order("created_at DESC").
		Find(&rsvps).Error; err != nil {
		log.Error("failed to list attendees", "event_id", eventID, "error", err)
		return nil, err
	}
	return rsvps, nil
}
