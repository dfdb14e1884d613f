package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/notify/webpush"
	"github.com/eventsphere/eventsphere/internal/realtime"
)

// CreateAnnouncement publishes an announcement, broadcasts it and pushes it to subscribed browsers.
func (e *Engine) CreateAnnouncement(ctx context.Context, authorID uint, title, content string) (*database.Announcement, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, validationErrorf("title and content are required")
	}

	announcement := &database.Announcement{
		Title:     title,
		Content:   content,
		CreatedBy: &authorID,
	}
	if err := e.db.CreateAnnouncement(ctx, announcement); err != nil {
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	e.broadcast(realtime.NewAnnouncement(announcement.ID, title, content))

	if e.webpush != nil {
		go e.pushAnnouncement(context.WithoutCancel(ctx), announcement)
	}
	return announcement, nil
}

// ListAnnouncements returns the most recent announcements.
func (e *Engine) ListAnnouncements(ctx context.Context, limit int) ([]database.Announcement, error) {
	return e.db.ListAnnouncements(ctx, limit)
}

// pushAnnouncement sends the announcement to every stored subscription and drops the
// ones the push service reports as gone.
func (e *Engine) pushAnnouncement(ctx context.Context, announcement *database.Announcement) {
	subs, err := e.db.ListPushSubscriptions(ctx)
	if err != nil {
		log.Error("failed to load push subscriptions", "error", err)
		return
	}

	payload := webpush.AnnouncementPayload(announcement.ID, announcement.Title, announcement.Content)
	var sent int
	for _, s := range subs {
		sub := &webpush.Subscription{Endpoint: s.Endpoint}
		sub.Keys.P256dh = s.P256dh
		sub.Keys.Auth = s.Auth

		err := e.webpush.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, webpush.ErrSubscriptionGone):
			log.Debug("removing expired push subscription", "user_id", s.UserID)
			if err := e.db.DeletePushSubscriptionByEndpoint(ctx, s.Endpoint); err != nil {
				log.Error("failed to remove push subscription", "error", err)
			}
		default:
			log.Warn("failed to push announcement", "user_id", s.UserID, "error", err)
		}
	}
	log.Info("pushed announcement", "announcement_id", announcement.ID, "sent", sent, "subscriptions", len(subs))
}

// ListNotifications returns the user's inbox, newest first.
func (e *Engine) ListNotifications(ctx context.Context, userID uint, limit int) ([]database.Notification, error) {
	return e.db.ListNotifications(ctx, userID, limit)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (e *Engine) MarkNotificationRead(ctx context.Context, id, userID uint) error {
	if err := e.db.MarkNotificationRead(ctx, id, userID); err != nil {
		return notFound(err, ErrNotificationNotFound)
	}
	return nil
}

// SubscribePush stores a browser push subscription for the user.
func (e *Engine) SubscribePush(ctx context.Context, userID uint, sub *webpush.Subscription) error {
	if e.webpush == nil {
		return fmt.Errorf("%w: push notifications are disabled", ErrForbidden)
	}
	if sub == nil || sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return validationErrorf("endpoint and keys are required")
	}
	return e.db.SavePushSubscription(ctx, &database.PushSubscription{
		UserID:   userID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.Keys.P256dh,
		Auth:     sub.Keys.Auth,
	})
}

// UnsubscribePush removes one of the user's push subscriptions.
func (e *Engine) UnsubscribePush(ctx context.Context, userID uint, endpoint string) error {
	if endpoint == "" {
		return validationErrorf("endpoint is required")
	}
	return e.db.DeletePushSubscription(ctx, userID, endpoint)
}
