package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// Announcement is a site wide message published by an admin.
type Announcement struct {
	ID        uint   `gorm:"primaryKey"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"not null"`
	CreatedBy *uint  `gorm:"index"`
	Author    *User  `gorm:"foreignKey:CreatedBy;constraint:OnDelete:SET NULL;"`
	CreatedAt time.Time
}

// AnnouncementDB defines the interface for announcement database operations.
type AnnouncementDB interface {
	CreateAnnouncement(ctx context.Context, announcement *Announcement) error
	ListAnnouncements(ctx context.Context, limit int) ([]Announcement, error)
}

func (c *Client) CreateAnnouncement(ctx context.Context, announcement *Announcement) error {
	if err := c.db.WithContext(ctx).Create(announcement).Error; err != nil {
		log.Error("failed to create announcement", "error", err)
		return err
	}
	return nil
}

func (c *Client) ListAnnouncements(ctx context.Context, limit int) ([]Announcement, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	var announcements []Announcement
	if err := c.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Find(&announcements).Error; err != nil {
		log.Error("failed to list announcements", "error", err)
		return nil, err
	}
	return announcements, nil
}
