package database

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm/clause"
)

// PushSubscription is a browser Web Push endpoint registered by a user.
type PushSubscription struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	User      *User  `gorm:"constraint:OnDelete:CASCADE;"`
	Endpoint  string `gorm:"uniqueIndex;not null"`
	P256dh    string `gorm:"not null"`
	Auth      string `gorm:"not null"`
	CreatedAt time.Time
}

// PushSubscriptionDB defines the interface for push subscription database operations.
type PushSubscriptionDB interface {
	SavePushSubscription(ctx context.Context, sub *PushSubscription) error
	DeletePushSubscription(ctx context.Context, userID uint, endpoint string) error
	DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error
	ListPushSubscriptions(ctx context.Context) ([]PushSubscription, error)
}

// SavePushSubscription stores the subscription, re-assigning an existing endpoint to the caller.
func (c *Client) SavePushSubscription(ctx context.Context, sub *PushSubscription) error {
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		log.Error("failed to save push subscription", "error", err)
		return err
	}
	return nil
}

func (c *Client) DeletePushSubscription(ctx context.Context, userID uint, endpoint string) error {
	if err := c.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&PushSubscription{}).Error; err != nil {
		log.Error("failed to delete push subscription", "error", err)
		return err
	}
	return nil
}

func (c *Client) DeletePushSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	if err := c.db.WithContext(ctx).
		Where("endpoint = ?", endpoint).
		Delete(&PushSubscription{}).Error; err != nil {
		log.Error("failed to delete push subscription", "error", err)
		return err
	}
	return nil
}

func (c *Client) ListPushSubscriptions(ctx context.Context) ([]PushSubscription, error) {
	var subs []PushSubscription
	if err := c.db.WithContext(ctx).Find(&subs).Error; err != nil {
		log.Error("failed to list push subscriptions", "error", err)
		return nil, err
	}
	return subs, nil
}
