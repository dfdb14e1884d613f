package database

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well known setting keys.
const (
	SettingSiteName                  = "site_name"
	SettingUserRegistration          = "user_registration"
	SettingEventCreation             = "event_creation"
	SettingAPIRateLimit              = "api_rate_limit"
	SettingLogRetentionDays          = "log_retention_days"
	SettingNotificationRetentionDays = "notification_retention_days"
)

// DefaultSettings are inserted at startup when missing.
var DefaultSettings = map[string]string{
	SettingSiteName:                  "EventSphere",
	SettingUserRegistration:          "true",
	SettingEventCreation:             "true",
	SettingAPIRateLimit:              "1000",
	SettingLogRetentionDays:          "90",
	SettingNotificationRetentionDays: "30",
}

// Setting is an admin editable key/value pair. Values are not schema checked.
type Setting struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

// SettingDB defines the interface for settings database operations.
type SettingDB interface {
	GetSettings(ctx context.Context) (map[string]string, error)
	GetSetting(ctx context.Context, key string) (string, error)
	UpsertSettings(ctx context.Context, settings map[string]string) error
	EnsureSettings(ctx context.Context, defaults map[string]string) error
}

func (c *Client) GetSettings(ctx context.Context) (map[string]string, error) {
	var rows []Setting
	if err := c.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		log.Error("failed to get settings", "error", err)
		return nil, err
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (c *Client) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	if err := c.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("failed to get setting", "key", key, "error", err)
		}
		return "", err
	}
	return setting.Value, nil
}

// UpsertSettings writes all given settings in one transaction.
func (c *Client) UpsertSettings(ctx context.Context, settings map[string]string) error {
	if len(settings) == 0 {
		return nil
	}
	rows := settingRows(settings)
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		log.Error("failed to update settings", "error", err)
		return err
	}
	return nil
}

// EnsureSettings inserts the given settings, leaving existing keys untouched.
func (c *Client) EnsureSettings(ctx context.Context, defaults map[string]string) error {
	if len(defaults) == 0 {
		return nil
	}
	rows := settingRows(defaults)
	if err := c.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		log.Error("failed to seed default settings", "error", err)
		return err
	}
	return nil
}

func settingRows(settings map[string]string) []Setting {
	rows := make([]Setting, 0, len(settings))
	for key, value := range settings {
		rows = append(rows, Setting{Key: key, Value: value})
	}
	return rows
}
