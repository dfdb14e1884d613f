package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// NotificationType classifies inbox messages.
type NotificationType string

const (
	NotificationTypeReportResolved  NotificationType = "report_resolved"
	NotificationTypeReportDismissed NotificationType = "report_dismissed"
	NotificationTypeAnnouncement    NotificationType = "announcement"
	NotificationTypeAccount         NotificationType = "account"
)

// Notification is a message in a user's inbox.
type Notification struct {
	ID        uint             `gorm:"primaryKey"`
	UserID    uint             `gorm:"not null;index"`
	User      *User            `gorm:"constraint:OnDelete:CASCADE;"`
	Type      NotificationType `gorm:"not null"`
	Message   string           `gorm:"not null"`
	IsRead    bool             `gorm:"not null;index"`
	CreatedAt time.Time        `gorm:"index"`
}

// NotificationDB defines the interface for notification database operations.
type NotificationDB interface {
	CreateNotification(ctx context.Context, notification *Notification) error
	ListNotifications(ctx context.Context, userID uint, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID uint) error
	DeleteReadNotificationsBefore(ctx context.Context, before time.Time) (int64, error)
}

func (c *Client) CreateNotification(ctx context.Context, notification *Notification) error {
	if err := c.db.WithContext(ctx).Create(notification).Error; err != nil {
		log.Error("failed to create notification", "error", err)
		return err
	}
	return nil
}

func (c *Client) ListNotifications(ctx context.Context, userID uint, limit int) ([]Notification, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	var notifications []Notification
	if err := c.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		log.Error("failed to list notifications", "user_id", userID, "error", err)
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationRead marks a notification owned by userID as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	result := c.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		log.Error("failed to mark notification as read", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (c *Client) DeleteReadNotificationsBefore(ctx context.Context, before time.Time) (int64, error) {
	result := c.db.WithContext(ctx).
		Where("is_read = ? AND created_at < ?", true, before.UTC()).
		Delete(&Notification{})
	if result.Error != nil {
		log.Error("failed to delete read notifications", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
