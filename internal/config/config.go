package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeRedis  CacheType = "redis"
)

// Config holds the configuration for the EventSphere server and its dependencies.
type Config struct {
	// Listen is the address the EventSphere server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the EventSphere server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Auth holds the authentication configuration.
	Auth *AuthConfig `yaml:"auth" mapstructure:"auth"`
	// Admin holds the bootstrap administrator account.
	Admin *AdminConfig `yaml:"admin" mapstructure:"admin"`
	// Database holds the database configuration.
	Database *DatabaseConfig `yaml:"database" mapstructure:"database"`
	// CORS holds the cross-origin configuration for the browser frontend.
	CORS *CORSConfig `yaml:"cors" mapstructure:"cors"`
	// RateLimit holds the request rate limiting policy.
	RateLimit *RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	// Cache holds the cache engine configuration.
	Cache *CacheConfig `yaml:"cache" mapstructure:"cache"`
	// Realtime holds the websocket broadcast configuration.
	Realtime *RealtimeConfig `yaml:"realtime" mapstructure:"realtime"`
	// Jobs holds the schedules of the maintenance jobs.
	Jobs *JobsConfig `yaml:"jobs" mapstructure:"jobs"`
	// Ntfy holds the ntfy notification configuration.
	Ntfy *NtfyConfig `yaml:"ntfy" mapstructure:"ntfy"`
	// WebPush holds the webpush notification configuration.
	WebPush *WebPushConfig `yaml:"webpush" mapstructure:"webpush"`
	// Gravatar holds the configuration for Gravatar profile pictures.
	Gravatar *GravatarConfig `yaml:"gravatar" mapstructure:"gravatar"`
}

// AuthConfig holds the authentication configuration.
type AuthConfig struct {
	// JWTSecret is the HMAC secret used to sign auth tokens.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// TokenTTL is how long an issued auth token stays valid.
	TokenTTL time.Duration `yaml:"token_ttl" mapstructure:"token_ttl"`
	// CookieName is the name of the httpOnly cookie carrying the token.
	CookieName string `yaml:"cookie_name" mapstructure:"cookie_name"`
	// CookieSecure marks the auth cookie as secure (https only).
	CookieSecure bool `yaml:"cookie_secure" mapstructure:"cookie_secure"`
	// CookieDomain is the optional domain attribute of the auth cookie.
	CookieDomain string `yaml:"cookie_domain" mapstructure:"cookie_domain"`
	// SessionKey is the key used to encrypt the short lived OIDC login session.
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
	// OIDC holds the OpenID Connect configuration.
	OIDC *OIDCConfig `yaml:"oidc" mapstructure:"oidc"`
}

// OIDCConfig holds the OpenID Connect configuration.
type OIDCConfig struct {
	// Enabled indicates whether OIDC authentication is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Name is the display name for the OIDC provider.
	Name string `yaml:"name" mapstructure:"name"`
	// Issuer is the OIDC issuer URL.
	Issuer string `yaml:"issuer" mapstructure:"issuer"`
	// ClientID is the OIDC client ID.
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	// ClientSecret is the OIDC client secret.
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	// RedirectURL is the redirect URL for the oidc flow.
	RedirectURL string `yaml:"redirect_url" mapstructure:"redirect_url"`
	// AdminGroup is the group that has admin privileges.
	AdminGroup string `yaml:"admin_group" mapstructure:"admin_group"`
	// UsePKCE enables PKCE (Proof Key for Code Exchange) for the OAuth 2.0 flow.
	UsePKCE bool `yaml:"use_pkce" mapstructure:"use_pkce"`
}

// AdminConfig describes the administrator account created on first start.
type AdminConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Email    string `yaml:"email" mapstructure:"email"`
	Password string `yaml:"password" mapstructure:"password"`
}

// DatabaseConfig holds the database configuration.
type DatabaseConfig struct {
	// Path is the path to the database file.
	Path string `yaml:"path" mapstructure:"path"`
}

// CORSConfig holds the allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// RateLimitConfig holds the fixed window rate limiting policy.
type RateLimitConfig struct {
	// Enabled indicates whether requests are rate limited.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Window is the length of one counting window.
	Window time.Duration `yaml:"window" mapstructure:"window"`
	// Anonymous is the request budget per window for unauthenticated clients, keyed by IP.
	Anonymous int `yaml:"anonymous" mapstructure:"anonymous"`
	// Authenticated is the request budget per window for signed in users.
	// The api_rate_limit setting overrides it at runtime.
	Authenticated int `yaml:"authenticated" mapstructure:"authenticated"`
	// Admin is the request budget per window for administrators.
	Admin int `yaml:"admin" mapstructure:"admin"`
}

// CacheConfig holds the configuration for the cache engine.
type CacheConfig struct {
	// Type is the type of cache engine to use (e.g., "memory", "redis").
	Type CacheType `yaml:"type" mapstructure:"type"`
	// RedisURL is the URL for the Redis cache if using Redis.
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

// RealtimeConfig holds the websocket broadcast configuration.
type RealtimeConfig struct {
	// SendBuffer is the number of messages queued per client before it is dropped.
	SendBuffer int `yaml:"send_buffer" mapstructure:"send_buffer"`
	// WriteTimeout bounds a single websocket write.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	// RelayClientMessages forwards messages sent by a client to all other clients.
	RelayClientMessages bool `yaml:"relay_client_messages" mapstructure:"relay_client_messages"`
}

// JobsConfig holds the cron schedules of the maintenance jobs.
type JobsConfig struct {
	// AuditRetentionSchedule runs the audit log retention job.
	AuditRetentionSchedule string `yaml:"audit_retention_schedule" mapstructure:"audit_retention_schedule"`
	// NotificationRetentionSchedule runs the read notification cleanup job.
	NotificationRetentionSchedule string `yaml:"notification_retention_schedule" mapstructure:"notification_retention_schedule"`
}

// NtfyConfig holds the ntfy notification configuration.
type NtfyConfig struct {
	// Enabled indicates whether ntfy notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServerURL is the URL of the ntfy server.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// Topic is the ntfy topic to publish notifications to.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Username is the ntfy username for authentication.
	Username string `yaml:"username" mapstructure:"username"`
	// Password is the ntfy password for authentication.
	Password string `yaml:"password" mapstructure:"password"`
	// Token is the ntfy token for authentication.
	Token string `yaml:"token" mapstructure:"token"`
}

// WebPushConfig holds the webpush notification configuration.
type WebPushConfig struct {
	// Enabled indicates whether webpush notifications are enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// VAPIDEmail is the email associated with the VAPID keys.
	VAPIDEmail string `yaml:"vapid_email" mapstructure:"vapid_email"`
	// PublicKey is the VAPID public key.
	PublicKey string `yaml:"public_key" mapstructure:"public_key"`
	// PrivateKey is the VAPID private key.
	PrivateKey string `yaml:"private_key" mapstructure:"private_key"`
}

// GravatarConfig holds the configuration for Gravatar profile pictures.
type GravatarConfig struct {
	// Enabled indicates whether Gravatar support is enabled.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// DefaultImage is the default image to use when no Gravatar is found.
	// Valid values: "404", "mp", "identicon", "monsterid", "wavatar", "retro", "robohash", "blank"
	DefaultImage string `yaml:"default_image" mapstructure:"default_image"`
	// Rating is the maximum rating for Gravatar images.
	// Valid values: "g", "pg", "r", "x"
	Rating string `yaml:"rating" mapstructure:"rating"`
	// Size is the size of the Gravatar image in pixels (1-2048).
	Size int `yaml:"size" mapstructure:"size"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it will use default search paths for config files.
// A missing config file is not an error; defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	bindNestedEnv(v)
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("EVENTSPHERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var configFileFound bool
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.eventsphere")
		v.AddConfigPath("/etc/eventsphere")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileFound = true
	}

	if configFileFound {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Environment variables with the EVENTSPHERE_ prefix override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:5000")
	v.SetDefault("server_url", "http://localhost:5000")

	// Auth defaults
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.cookie_name", "authToken")
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.cookie_domain", "")
	v.SetDefault("auth.session_key", "")
	v.SetDefault("auth.oidc.enabled", false)
	v.SetDefault("auth.oidc.name", "OIDC")
	v.SetDefault("auth.oidc.issuer", "")
	v.SetDefault("auth.oidc.client_id", "")
	v.SetDefault("auth.oidc.client_secret", "")
	v.SetDefault("auth.oidc.redirect_url", "")
	v.SetDefault("auth.oidc.use_pkce", false)
	v.SetDefault("auth.oidc.admin_group", "")

	// Bootstrap admin
	v.SetDefault("admin.name", "admin")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")

	// Database defaults
	v.SetDefault("database.path", "./data/eventsphere.db")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("rate_limit.anonymous", 100)
	v.SetDefault("rate_limit.authenticated", 1000)
	v.SetDefault("rate_limit.admin", 10000)

	// Cache defaults
	v.SetDefault("cache.type", CacheTypeMemory)
	v.SetDefault("cache.redis_url", "")

	// Realtime defaults
	v.SetDefault("realtime.send_buffer", 16)
	v.SetDefault("realtime.write_timeout", 10*time.Second)
	v.SetDefault("realtime.relay_client_messages", false)

	// Job defaults
	v.SetDefault("jobs.audit_retention_schedule", "0 3 * * *")
	v.SetDefault("jobs.notification_retention_schedule", "30 3 * * *")

	// Ntfy defaults
	v.SetDefault("ntfy.enabled", false)
	v.SetDefault("ntfy.server_url", "https://ntfy.sh")
	v.SetDefault("ntfy.topic", "eventsphere")
	v.SetDefault("ntfy.username", "")
	v.SetDefault("ntfy.password", "")
	v.SetDefault("ntfy.token", "")

	// Gravatar defaults
	v.SetDefault("gravatar.enabled", false)
	v.SetDefault("gravatar.default_image", "identicon")
	v.SetDefault("gravatar.rating", "g")
	v.SetDefault("gravatar.size", 80)

	// WebPush defaults
	v.SetDefault("webpush.enabled", false)
	v.SetDefault("webpush.vapid_email", "")
	v.SetDefault("webpush.public_key", "")
	v.SetDefault("webpush.private_key", "")
}

// the auto env function from viper only works for nested structs, if the struct to which a value binds isn't nil.
// Keys without a default have to be bound manually.
func bindNestedEnv(v *viper.Viper) {
	v.MustBindEnv("auth.jwt_secret", "EVENTSPHERE_AUTH_JWT_SECRET")
}

// validateConfig validates the configuration.
func validateConfig(c *Config) error {
	if c == nil {
		return fmt.Errorf("missing eventsphere config")
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	if c.Auth == nil {
		return fmt.Errorf("missing auth config")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth JWT secret is required")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth JWT secret must be at least 32 characters long")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL must be positive")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("auth cookie name is required")
	}

	if c.Auth.OIDC != nil && c.Auth.OIDC.Enabled {
		if c.Auth.OIDC.Issuer == "" {
			return fmt.Errorf("OIDC issuer is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientID == "" {
			return fmt.Errorf("OIDC client ID is required when OIDC is enabled")
		}
		if c.Auth.OIDC.ClientSecret == "" {
			return fmt.Errorf("OIDC client secret is required when OIDC is enabled")
		}
		if c.Auth.OIDC.RedirectURL == "" {
			return fmt.Errorf("OIDC redirect URL is required when OIDC is enabled")
		}
		if c.Auth.SessionKey == "" {
			return fmt.Errorf("session key is required when OIDC is enabled")
		}
	}

	if c.Admin != nil && c.Admin.Email != "" && len(c.Admin.Password) < 8 {
		return fmt.Errorf("admin password must be at least 8 characters long")
	}

	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.RateLimit != nil && c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
		if c.RateLimit.Anonymous <= 0 || c.RateLimit.Authenticated <= 0 || c.RateLimit.Admin <= 0 {
			return fmt.Errorf("rate limit budgets must be greater than 0")
		}
	}

	if c.Cache != nil {
		if c.Cache.Type == "" {
			return fmt.Errorf("cache type is required when cache is enabled")
		}
		if c.Cache.Type != CacheTypeMemory && c.Cache.Type != CacheTypeRedis {
			return fmt.Errorf("unsupported cache type %q", c.Cache.Type)
		}
		if c.Cache.Type == CacheTypeRedis && c.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when Redis cache is enabled") //nolint:staticcheck
		}
	} else {
		c.Cache = &CacheConfig{
			Type: CacheTypeMemory,
		}
	}

	if c.Realtime == nil {
		c.Realtime = &RealtimeConfig{SendBuffer: 16, WriteTimeout: 10 * time.Second}
	}
	if c.Realtime.SendBuffer <= 0 {
		return fmt.Errorf("realtime send buffer must be greater than 0")
	}

	if c.Jobs != nil {
		for name, schedule := range map[string]string{
			"audit retention":        c.Jobs.AuditRetentionSchedule,
			"notification retention": c.Jobs.NotificationRetentionSchedule,
		} {
			if len(strings.Fields(schedule)) != 5 {
				return fmt.Errorf("%s schedule must be a valid cron expression with 5 fields (minute hour day month weekday)", name)
			}
		}
	}

	if c.Ntfy != nil && c.Ntfy.Enabled {
		if c.Ntfy.ServerURL == "" {
			return fmt.Errorf("ntfy server URL is required when ntfy is enabled")
		}
		if c.Ntfy.Topic == "" {
			return fmt.Errorf("ntfy topic is required when ntfy is enabled")
		}
	}

	if c.WebPush != nil && c.WebPush.Enabled {
		if c.WebPush.PublicKey == "" || c.WebPush.PrivateKey == "" {
			return fmt.Errorf("webpush VAPID keys are required when webpush is enabled")
		}
		if c.WebPush.VAPIDEmail == "" {
			return fmt.Errorf("webpush VAPID email is required when webpush is enabled")
		}
	}

	return nil
}

// sanitizeConfig sanitizes the configuration values.
func sanitizeConfig(c *Config) {
	if c == nil {
		return
	}

	c.Listen = urlSanitize(c.Listen)

	if c.ServerURL != "" {
		c.ServerURL = urlSanitize(c.ServerURL)
	}

	if c.Ntfy != nil {
		c.Ntfy.ServerURL = urlSanitize(c.Ntfy.ServerURL)
	}

	if c.CORS != nil {
		for i, origin := range c.CORS.AllowedOrigins {
			c.CORS.AllowedOrigins[i] = urlSanitize(origin)
		}
	}

	if c.Admin != nil {
		c.Admin.Email = strings.ToLower(strings.TrimSpace(c.Admin.Email))
	}
}

func urlSanitize(url string) string {
	return strings.TrimSuffix(strings.TrimSpace(url), "/")
}
