package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/datatypes"
)

// AuditLog is an immutable record of a mutating admin action.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey"`
	UserID     uint           `gorm:"not null;index"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;"`
	ActionType string         `gorm:"not null;index"`
	TargetType string         `gorm:"not null"`
	TargetID   string         `gorm:"index"`
	Details    datatypes.JSON `gorm:"type:json"`
	CreatedAt  time.Time      `gorm:"index"`
}

// AuditLogDB defines the interface for audit log database operations.
type AuditLogDB interface {
	CreateAuditLog(ctx context.Context, entry *AuditLog) error
	ListAuditLogs(ctx context.Context, page Pagination) ([]AuditLog, int64, error)
	DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error)
}

func (c *Client) CreateAuditLog(ctx context.Context, entry *AuditLog) error {
	if err := c.db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Error("failed to create audit log", "error", err)
		return err
	}
	return nil
}

func (c *Client) ListAuditLogs(ctx context.Context, page Pagination) ([]AuditLog, int64, error) {
	page = page.Normalize()

	var total int64
	if err := c.db.WithContext(ctx).Model(&AuditLog{}).Count(&total).Error; err != nil {
		log.Error("failed to count audit logs", "error", err)
		return nil, 0, err
	}

	var entries []AuditLog
	if err := c.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&entries).Error; err != nil {
		log.Error("failed to list audit logs", "error", err)
		return nil, 0, err
	}
	return entries, total, nil
}

// DeleteAuditLogsBefore removes entries older than before and returns how many were removed.
func (c *Client) DeleteAuditLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	result := c.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&AuditLog{})
	if result.Error != nil {
		log.Error("failed to delete audit logs", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
