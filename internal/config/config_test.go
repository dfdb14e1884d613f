package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: "+testSecret+"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Listen)
	assert.Equal(t, "http://localhost:5000", cfg.ServerURL)
	assert.Equal(t, "authToken", cfg.Auth.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "./data/eventsphere.db", cfg.Database.Path)
	assert.Equal(t, CacheTypeMemory, cfg.Cache.Type)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.Anonymous)
	assert.Equal(t, 16, cfg.Realtime.SendBuffer)
	assert.Equal(t, "0 3 * * *", cfg.Jobs.AuditRetentionSchedule)
	assert.False(t, cfg.Auth.OIDC.Enabled)
	assert.False(t, cfg.WebPush.Enabled)
}

func TestLoad_FileValuesAreSanitized(t *testing.T) {
	path := writeConfig(t, `
listen: " 127.0.0.1:8080 "
server_url: https://events.example.com/
auth:
  jwt_secret: `+testSecret+`
  token_ttl: 2h
admin:
  email: " Root@Example.com "
  password: supersecret
cors:
  allowed_origins:
    - https://app.example.com/
ntfy:
  enabled: true
  server_url: https://ntfy.example.com/
  topic: moderation
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "https://events.example.com", cfg.ServerURL)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "root@example.com", cfg.Admin.Email)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://ntfy.example.com", cfg.Ntfy.ServerURL)
	assert.Equal(t, "moderation", cfg.Ntfy.Topic)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: short\ndatabase:\n  path: /tmp/file.db\n")
	t.Setenv("EVENTSPHERE_AUTH_JWT_SECRET", testSecret)
	t.Setenv("EVENTSPHERE_DATABASE_PATH", "/var/lib/eventsphere/events.db")
	t.Setenv("EVENTSPHERE_RATE_LIMIT_ANONYMOUS", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "/var/lib/eventsphere/events.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.RateLimit.Anonymous)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing secret",
			content: "listen: :5000\n",
			wantErr: "auth JWT secret is required",
		},
		{
			name:    "short secret",
			content: "auth:\n  jwt_secret: tooshort\n",
			wantErr: "at least 32 characters",
		},
		{
			name:    "oidc without issuer",
			content: "auth:\n  jwt_secret: " + testSecret + "\n  oidc:\n    enabled: true\n",
			wantErr: "OIDC issuer is required",
		},
		{
			name:    "redis without url",
			content: "auth:\n  jwt_secret: " + testSecret + "\ncache:\n  type: redis\n",
			wantErr: "Redis URL is required",
		},
		{
			name:    "unknown cache",
			content: "auth:\n  jwt_secret: " + testSecret + "\ncache:\n  type: memcached\n",
			wantErr: "unsupported cache type",
		},
		{
			name:    "bad cron",
			content: "auth:\n  jwt_secret: " + testSecret + "\njobs:\n  audit_retention_schedule: daily\n",
			wantErr: "audit retention schedule",
		},
		{
			name:    "weak admin password",
			content: "auth:\n  jwt_secret: " + testSecret + "\nadmin:\n  email: root@example.com\n  password: abc\n",
			wantErr: "admin password",
		},
		{
			name:    "webpush without keys",
			content: "auth:\n  jwt_secret: " + testSecret + "\nwebpush:\n  enabled: true\n",
			wantErr: "VAPID keys are required",
		},
		{
			name:    "zero rate limit",
			content: "auth:\n  jwt_secret: " + testSecret + "\nrate_limit:\n  admin: 0\n",
			wantErr: "rate limit budgets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
