package cache

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/codec"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/eventsphere/eventsphere/internal/config"
)

// Cache key prefixes.
const (
	SettingsCachePrefix      = "settings-"
	RevokedTokensCachePrefix = "revoked-token-"
)

const (
	settingsKey = "all"
	settingsTTL = 5 * time.Minute
)

// AppCache bundles the caches the API relies on.
type AppCache struct {
	// Settings holds the full settings map under a single key.
	Settings *PrefixedCache[map[string]string]
	// RevokedTokens holds the ids of tokens invalidated by logout until they expire.
	RevokedTokens *PrefixedCache[bool]
}

// New creates the application caches backed by the configured store.
func New(cfg *config.CacheConfig) (*AppCache, error) {
	settings, err := newCacheInstanceByType(cfg)
	if err != nil {
		return nil, err
	}
	revoked, err := newCacheInstanceByType(cfg)
	if err != nil {
		return nil, err
	}
	return &AppCache{
		Settings:      NewPrefixedCache[map[string]string](settings, SettingsCachePrefix),
		RevokedTokens: NewPrefixedCache[bool](revoked, RevokedTokensCachePrefix),
	}, nil
}

// GetSettings returns the cached settings map, if present.
func (a *AppCache) GetSettings(ctx context.Context) (map[string]string, bool) {
	settings, err := a.Settings.Get(ctx, settingsKey)
	if err != nil || settings == nil {
		return nil, false
	}
	return settings, true
}

// SetSettings caches the settings map for a few minutes.
func (a *AppCache) SetSettings(ctx context.Context, settings map[string]string) {
	if err := a.Settings.Set(ctx, settingsKey, settings, store.WithExpiration(settingsTTL)); err != nil {
		log.Warn("failed to cache settings", "error", err)
	}
}

// InvalidateSettings drops the cached settings map.
func (a *AppCache) InvalidateSettings(ctx context.Context) {
	if err := a.Settings.Delete(ctx, settingsKey); err != nil {
		log.Debug("failed to invalidate settings cache", "error", err)
	}
}

// RevokeToken remembers a token id until the token would have expired anyway.
func (a *AppCache) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return a.RevokedTokens.Set(ctx, tokenID, true, store.WithExpiration(ttl))
}

// IsTokenRevoked reports whether the token id was revoked.
func (a *AppCache) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := a.RevokedTokens.Get(ctx, tokenID)
	return err == nil && revoked
}

type Stats struct {
	*codec.Stats
	CacheName string `json:"cacheName"`
}

func (a *AppCache) GetStats() []*Stats {
	return []*Stats{
		{
			Stats:     a.Settings.GetStats(),
			CacheName: "settings",
		},
		{
			Stats:     a.RevokedTokens.GetStats(),
			CacheName: "revoked-tokens",
		},
	}
}
