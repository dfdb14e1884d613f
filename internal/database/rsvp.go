package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// RSVPStatus is a user's answer to an event invitation.
type RSVPStatus string

const (
	RSVPStatusAttending    RSVPStatus = "attending"
	RSVPStatusMaybe        RSVPStatus = "maybe"
	RSVPStatusNotAttending RSVPStatus = "not_attending"
)

// Valid reports whether s is a known RSVP status.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPStatusAttending, RSVPStatusMaybe, RSVPStatusNotAttending:
		return true
	}
	return false
}

// RSVP is unique per (user, event).
type RSVP struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_rsvps_user_event"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;"`
	EventID   uint       `gorm:"not null;uniqueIndex:idx_rsvps_user_event;index"`
	Event     *Event     `gorm:"constraint:OnDelete:CASCADE;"`
	Status    RSVPStatus `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RSVP) TableName() string {
	return "rsvps"
}

// RSVPDB defines the interface for RSVP-related database operations.
type RSVPDB interface {
	GetRSVP(ctx context.Context, eventID, userID uint) (*RSVP, error)
	UpsertRSVPWithinCapacity(ctx context.Context, eventID, userID uint, status RSVPStatus) (bool, error)
	CountAttending(ctx context.Context, eventID uint) (int64, error)
}

func (c *Client) GetRSVP(ctx context.Context, eventID, userID uint) (*RSVP, error) {
	var rsvp RSVP
	if err := c.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&rsvp).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get rsvp", "error", err)
		}
		return nil, err
	}
	return &rsvp, nil
}

// The row is written unless it would move the user into "attending" while the event is full.
// A user who is already attending may always re-submit.
const upsertRSVPWithinCapacity = `
	INSERT INTO rsvps (user_id, event_id, status, created_at, updated_at)
	SELECT ?, e.id, ?, ?, ?
	FROM events e
	WHERE e.id = ?
		AND (
			? <> 'attending'
			OR EXISTS (
				SELECT 1 FROM rsvps r
				WHERE r.event_id = e.id AND r.user_id = ? AND r.status = 'attending'
			)
			OR (
				SELECT COUNT(*) FROM rsvps r
				WHERE r.event_id = e.id AND r.status = 'attending'
			) < e.capacity
		)
	ON CONFLICT(user_id, event_id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at
`

// UpsertRSVPWithinCapacity checks capacity and writes the RSVP in a single statement.
// It returns false when nothing was written, either because the event is full or because
// the event does not exist.
func (c *Client) UpsertRSVPWithinCapacity(ctx context.Context, eventID, userID uint, status RSVPStatus) (bool, error) {
	now := c.db.NowFunc()
	result := c.db.WithContext(ctx).Exec(upsertRSVPWithinCapacity,
		userID, status, now, now,
		eventID,
		status,
		userID,
	)
	if result.Error != nil {
		log.Error("failed to upsert rsvp", "event_id", eventID, "user_id", userID, "error", result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (c *Client) CountAttending(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&RSVP{}).
		Where("event_id = ? AND status = ?", eventID, RSVPStatusAttending).
		Count(&count).Error; err != nil {
		log.Error("failed to count attending rsvps", "event_id", eventID, "error", err)
		return 0, err
	}
	return count, nil
}
