package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, LinkedInAuthURL, cfg.LinkedIn.AuthURL)
	assert.Equal(t, LinkedInTokenURL, cfg.LinkedIn.TokenURL)
	assert.Equal(t, LinkedInUserInfoURL, cfg.LinkedIn.UserInfoURL)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.LinkedIn.Scopes)
	assert.Equal(t, "/Main_Page", cfg.LinkedIn.DefaultReturnTo)
	assert.Equal(t, 120*time.Second, cfg.LinkedIn.HandoffTTL)
	assert.Equal(t, "oauth_linkedin", cfg.OAuthSession.CookieName)
	assert.Equal(t, 600*time.Second, cfg.OAuthSession.TTL)
	assert.Equal(t, "redis", cfg.OAuthSession.Backend)
	assert.Equal(t, time.Hour, cfg.Session.Duration)
	assert.Equal(t, "approved", cfg.Accounts.ApprovedGroup)
	assert.Equal(t, " LIN", cfg.Accounts.NameSuffix)
	assert.Equal(t, 50, cfg.Accounts.MaxNameAttempts)
	assert.False(t, cfg.Debug)
}

func TestLoadConfig_FileAndEnvPrecedence(t *testing.T) {
	dir := writeConfig(t, `
linkedin:
  client_id: " file-client "
  client_secret: file-secret
  redirect_uri: https://wiki.example.org/callback
  hmac_key: file-key
oauth_session:
  backend: MEMORY
  cookie_domain: .example.org
debug: false
`)
	t.Setenv("LINKEDIN_CLIENT_SECRET", "env-secret")
	t.Setenv("LINKEDIN_DEBUG", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "file-client", cfg.LinkedIn.ClientID)
	assert.Equal(t, "env-secret", cfg.LinkedIn.ClientSecret)
	assert.Equal(t, "https://wiki.example.org/callback", cfg.LinkedIn.RedirectURI)
	assert.Equal(t, "file-key", cfg.LinkedIn.HMACKey)
	assert.Equal(t, "memory", cfg.OAuthSession.Backend)
	assert.Equal(t, ".example.org", cfg.OAuthSession.CookieDomain)
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_CallbackURLOverridesRedirect(t *testing.T) {
	dir := writeConfig(t, `
linkedin:
  redirect_uri: https://wiki.example.org/old
  callback_url: https://wiki.example.org/new
`)
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://wiki.example.org/new", cfg.LinkedIn.RedirectURI)
}

func TestLoadConfig_RedisURL(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://user:pw@redis.internal:6380/2")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "redis.internal:6380", cfg.Redis.Address)
	assert.Equal(t, "pw", cfg.Redis.Password)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestMissingProviderSettings(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"client_id", "redirect_uri"}, cfg.MissingProviderSettings(false))
	assert.Equal(t, []string{"client_id", "client_secret", "redirect_uri"}, cfg.MissingProviderSettings(true))

	cfg.LinkedIn = LinkedInConfig{ClientID: "id", ClientSecret: "s", RedirectURI: "https://x/cb"}
	assert.Empty(t, cfg.MissingProviderSettings(true))
}
