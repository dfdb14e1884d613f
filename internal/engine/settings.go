package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/database"
)

// Settings returns all settings, served from the cache when possible.
func (e *Engine) Settings(ctx context.Context) (map[string]string, error) {
	if settings, ok := e.cache.GetSettings(ctx); ok {
		return settings, nil
	}

	settings, err := e.db.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	e.cache.SetSettings(ctx, settings)
	return settings, nil
}

// UpdateSettings stores the given values. Only known keys are accepted; values are stored as given.
func (e *Engine) UpdateSettings(ctx context.Context, updates map[string]string) error {
	if len(updates) == 0 {
		return validationErrorf("no settings provided")
	}
	for _, key := range slices.Sorted(maps.Keys(updates)) {
		if _, known := database.DefaultSettings[key]; !known {
			return validationErrorf("unknown setting %q", key)
		}
	}

	if err := e.db.UpsertSettings(ctx, updates); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	e.cache.InvalidateSettings(ctx)
	log.Info("settings updated", "keys", slices.Sorted(maps.Keys(updates)))
	return nil
}

// settingEnabled reads a boolean setting. Anything but an explicit false counts as enabled,
// including a failure to read the settings.
func (e *Engine) settingEnabled(ctx context.Context, key string) bool {
	settings, err := e.Settings(ctx)
	if err != nil {
		log.Warn("failed to read setting, assuming enabled", "key", key, "error", err)
		return true
	}
	value, ok := settings[key]
	if !ok {
		return true
	}
	enabled, err := strconv.ParseBool(strings.TrimSpace(value))
	return err != nil || enabled
}

// settingInt reads a positive integer setting, falling back when it is missing or malformed.
func (e *Engine) settingInt(ctx context.Context, key string, fallback int) int {
	settings, err := e.Settings(ctx)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(settings[key]))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// APIRateLimit returns the request budget for authenticated users from the api_rate_limit
// setting. ok is false when the setting is missing or not a positive number.
func (e *Engine) APIRateLimit(ctx context.Context) (limit int, ok bool) {
	limit = e.settingInt(ctx, database.SettingAPIRateLimit, 0)
	return limit, limit > 0
}
