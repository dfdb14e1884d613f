package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// Moderation is the set of writes an admin decision on a report applies together.
type Moderation struct {
	ReportID uint
	EventID  uint
	// HideEvent archives the reported event.
	HideEvent bool
	// BanUserID deactivates the given user, usually the event creator.
	BanUserID *uint
	// ResolveStatus, when set, becomes the new report status.
	ResolveStatus *ReportStatus
	// Notify is stored in the same transaction, typically telling the reporter about the outcome.
	Notify *Notification
}

// ModerationDB defines the interface for moderation database operations.
type ModerationDB interface {
	ApplyModeration(ctx context.Context, m Moderation) error
}

// ApplyModeration performs all requested writes in one transaction. Either every step is
// committed or none is.
func (c *Client) ApplyModeration(ctx context.Context, m Moderation) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.HideEvent {
			result := tx.Model(&Event{}).Where("id = ?", m.EventID).Update("status", EventStatusArchived)
			if result.Error != nil {
				return fmt.Errorf("failed to hide event: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("failed to hide event: %w", gorm.ErrRecordNotFound)
			}
		}

		if m.BanUserID != nil {
			result := tx.Model(&User{}).Where("id = ?", *m.BanUserID).Update("is_active", false)
			if result.Error != nil {
				return fmt.Errorf("failed to ban user: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("failed to ban user: %w", gorm.ErrRecordNotFound)
			}
		}

		if m.ResolveStatus != nil {
			result := tx.Model(&Report{}).Where("id = ?", m.ReportID).Update("status", *m.ResolveStatus)
			if result.Error != nil {
				return fmt.Errorf("failed to update report status: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("failed to update report status: %w", gorm.ErrRecordNotFound)
			}
		}

		if m.Notify != nil {
			if err := tx.Create(m.Notify).Error; err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		log.Error("moderation rolled back", "report_id", m.ReportID, "error", err)
		return err
	}
	return nil
}
