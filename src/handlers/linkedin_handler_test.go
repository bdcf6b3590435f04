package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/cache"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

type openIDServer struct {
	*httptest.Server
	hits int
}

func newOpenIDServer(t *testing.T) *openIDServer {
	s := &openIDServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"issuer": "https://www.linkedin.com/oauth",
			"authorization_endpoint": "https://www.linkedin.com/oauth/v2/authorization",
			"token_endpoint": "https://www.linkedin.com/oauth/v2/accessToken",
			"userinfo_endpoint": "https://api.linkedin.com/v2/userinfo"
		}`)
	}))
	t.Cleanup(s.Close)
	return s
}

func setupLinkedInHandler(t *testing.T, openIDURL string) (*LinkedInHandler, *miniredis.Miniredis) {
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisCache, err := cache.NewRedisCache(&config.RedisConfig{Address: mr.Addr(), CacheTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { redisCache.Close() })

	cfg := &config.Config{
		LinkedIn: config.LinkedInConfig{
			ClientID:        "client-id",
			ClientSecret:    "super-secret-value",
			RedirectURI:     "https://wiki.example.org/auth/linkedin/callback",
			AuthURL:         config.LinkedInAuthURL,
			TokenURL:        config.LinkedInTokenURL,
			UserInfoURL:     "https://api.linkedin.com/v2/userinfo-custom",
			OpenIDConfigURL: openIDURL,
			LoginURL:        "/auth/linkedin/login",
			HMACKey:         "short",
			DefaultReturnTo: "/Main_Page",
		},
		OAuthSession: config.OAuthSessionConfig{Backend: "redis"},
		Session: config.SessionConfig{
			CookieName:     "session_id",
			CookiePath:     "/",
			CookieDomain:   ".example.org",
			CookieSameSite: "lax",
			CookieSecure:   true,
		},
	}
	return NewLinkedInHandler(cfg, redisCache), mr
}

func perform(handler gin.HandlerFunc, target string, setup ...func(*gin.Context)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	for _, fn := range setup {
		fn(c)
	}
	handler(c)
	return w
}

func TestLinkedInHandler_HealthCheck(t *testing.T) {
	h, _ := setupLinkedInHandler(t, "")
	w := perform(h.HealthCheck, "/api/v1/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestLinkedInHandler_StatusMasksSecrets(t *testing.T) {
	h, _ := setupLinkedInHandler(t, "")
	w := perform(h.Status, "/api/v1/linkedin/status")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.NotContains(t, body, "super-secret-value")
	assert.Contains(t, body, "sup************lue")
	assert.Contains(t, body, `"value":"*****"`)
	assert.Contains(t, body, `"configured":true`)
	assert.NotContains(t, body, "probe")
}

func TestLinkedInHandler_StatusProbe(t *testing.T) {
	server := newOpenIDServer(t)
	h, mr := setupLinkedInHandler(t, server.URL)

	w := perform(h.Status, "/api/v1/linkedin/status?action=test")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Probe       []models.ProbeResult `json:"probe"`
		ProbeCached bool                 `json:"probe_cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.ProbeCached)

	byLabel := map[string]models.ProbeResult{}
	for _, r := range body.Probe {
		byLabel[r.Label] = r
	}
	assert.Equal(t, statusOK, byLabel["configuration"].Status)
	assert.Equal(t, statusOK, byLabel["openid-configuration"].Status)
	assert.Contains(t, byLabel["openid-configuration"].Detail, "https://www.linkedin.com/oauth")
	assert.Equal(t, statusOK, byLabel["authorization_endpoint"].Status)
	assert.Equal(t, statusOK, byLabel["token_endpoint"].Status)
	assert.Equal(t, statusWarn, byLabel["userinfo_endpoint"].Status)

	assert.True(t, mr.Exists(probeCacheKey))
	assert.Equal(t, time.Minute, mr.TTL(probeCacheKey))

	w = perform(h.Status, "/api/v1/linkedin/status?action=test")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.ProbeCached)
	assert.Equal(t, 1, server.hits)

	mr.FastForward(61 * time.Second)
	perform(h.Status, "/api/v1/linkedin/status?action=test")
	assert.Equal(t, 2, server.hits)
}

func TestLinkedInHandler_StatusProbeRefresh(t *testing.T) {
	server := newOpenIDServer(t)
	h, mr := setupLinkedInHandler(t, server.URL)

	perform(h.Status, "/api/v1/linkedin/status?action=test")
	require.Equal(t, 1, server.hits)
	require.True(t, mr.Exists(probeCacheKey))

	w := perform(h.Status, "/api/v1/linkedin/status?action=test&refresh=1")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ProbeCached bool `json:"probe_cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.ProbeCached)
	assert.Equal(t, 2, server.hits)
	assert.True(t, mr.Exists(probeCacheKey))
}

func TestLinkedInHandler_ProbeUnreachable(t *testing.T) {
	server := newOpenIDServer(t)
	url := server.URL
	server.Close()

	h, _ := setupLinkedInHandler(t, url)
	h.cfg.LinkedIn.HMACKey = ""
	h.cfg.LinkedIn.RedirectURI = "http://wiki.example.org/callback"

	w := perform(h.Status, "/api/v1/linkedin/status?action=test")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Configured bool                 `json:"configured"`
		Probe      []models.ProbeResult `json:"probe"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Configured)

	statuses := map[string]string{}
	for _, r := range body.Probe {
		statuses[r.Label] = r.Status
	}
	assert.Equal(t, statusError, statuses["hmac_key"])
	assert.Equal(t, statusWarn, statuses["redirect_uri"])
	assert.Equal(t, statusError, statuses["openid-configuration"])
}

func TestLinkedInHandler_Welcome(t *testing.T) {
	h, _ := setupLinkedInHandler(t, "")

	w := perform(h.Welcome, "/api/v1/linkedin/welcome")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"logged_in":false`)
	assert.Contains(t, w.Body.String(), `"domain":".example.org"`)

	w = perform(h.Welcome, "/api/v1/linkedin/welcome", func(c *gin.Context) {
		c.Set(models.CtxKeyAccount, &models.Account{ID: 5, Username: "Jane Doe LIN"})
		c.Set(models.CtxKeyGroups, []string{"approved"})
	})
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["logged_in"])
	assert.Equal(t, "Jane Doe LIN", body["username"])
	assert.Equal(t, float64(5), body["user_id"])
	assert.Equal(t, []any{"approved"}, body["groups"])
}

func TestLinkedInHandler_LoginButton(t *testing.T) {
	h, _ := setupLinkedInHandler(t, "")

	w := perform(h.LoginButton, "/auth/linkedin/button?returnTo=/wiki/Talk:Foo")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t,
		`<a class="linkedin-login-button" href="/auth/linkedin/login?returnTo=%2FTalk%3AFoo" rel="nofollow">Log in with LinkedIn</a>`,
		w.Body.String())

	w = perform(h.LoginButton, "/auth/linkedin/button?type=link&text=%3Cb%3ESign+in%3C%2Fb%3E")
	assert.Contains(t, w.Body.String(), `class="linkedin-login-link"`)
	assert.Contains(t, w.Body.String(), "&lt;b&gt;Sign in&lt;/b&gt;")
	assert.Contains(t, w.Body.String(), "returnTo=%2FMain_Page")
}
