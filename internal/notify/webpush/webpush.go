package webpush

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/config"
)

// ErrSubscriptionGone is returned when the push service reports the subscription as expired (404/410).
var ErrSubscriptionGone = errors.New("push subscription is gone")

// Client sends Web Push notifications signed with the configured VAPID keys.
// Subscriptions are owned by the caller.
type Client struct {
	config *config.WebPushConfig
}

// Subscription is the browser side of a push subscription.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

// NotificationPayload represents the payload sent to the service worker.
type NotificationPayload struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Icon  string         `json:"icon,omitempty"`
	Badge string         `json:"badge,omitempty"`
	Data  map[string]any `json:"data"`
}

// NewClient creates a new webpush client.
func NewClient(cfg *config.WebPushConfig) *Client {
	return &Client{config: cfg}
}

// GenerateVAPIDKeys generates a new VAPID key pair.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// GetPublicKey returns the VAPID public key for client subscription.
func (c *Client) GetPublicKey() string {
	return c.config.PublicKey
}

// Send delivers payload to a single subscription.
func (c *Client) Send(ctx context.Context, sub *Subscription, payload *NotificationPayload) error {
	if !c.config.Enabled {
		return errors.New("webpush notifications are disabled")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      c.config.VAPIDEmail,
		VAPIDPublicKey:  c.config.PublicKey,
		VAPIDPrivateKey: c.config.PrivateKey,
		TTL:             30,
		RecordSize:      3000, // higher caused issues with firefox on android
	})
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionGone
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("push notification failed with status %d", resp.StatusCode)
	}

	log.Debug("sent push notification", "status", resp.StatusCode)
	return nil
}

// AnnouncementPayload builds the notification shown for a new announcement.
func AnnouncementPayload(id uint, title, content string) *NotificationPayload {
	body := content
	if len(body) > 140 {
		body = body[:137] + "..."
	}
	return &NotificationPayload{
		Title: title,
		Body:  body,
		Icon:  "/icons/icon-192x192.png",
		Badge: "/icons/icon-192x192.png",
		Data: map[string]any{
			"type":           "announcement",
			"announcementId": id,
			"timestamp":      time.Now().Unix(),
		},
	}
}

// ValidateConfig validates the webpush configuration.
func (c *Client) ValidateConfig() error {
	if !c.config.Enabled {
		return nil
	}

	if c.config.VAPIDEmail == "" {
		return errors.New("vapid_email is required when webpush is enabled")
	}

	if c.config.PublicKey == "" || c.config.PrivateKey == "" {
		return errors.New("both public_key and private_key are required when webpush is enabled")
	}

	if _, err := base64.RawURLEncoding.DecodeString(c.config.PublicKey); err != nil {
		return fmt.Errorf("invalid public key format: %w", err)
	}

	if _, err := base64.RawURLEncoding.DecodeString(c.config.PrivateKey); err != nil {
		return fmt.Errorf("invalid private key format: %w", err)
	}

	return nil
}
