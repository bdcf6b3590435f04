package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/mocks"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

func testOAuthSessionConfig() config.OAuthSessionConfig {
	return config.OAuthSessionConfig{
		Backend:      "memory",
		CookieName:   "oauth_linkedin",
		CookieDomain: ".example.org",
		TTL:          600 * time.Second,
	}
}

func TestOAuthSessions_StartIssuesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := NewOAuthSessions(NewMemoryStateStore(time.Minute), testOAuthSessionConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/linkedin/login", nil)

	session, err := sessions.Start(c)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "oauth_linkedin", cookie.Name)
	assert.Equal(t, session.ID(), cookie.Value)
	assert.Equal(t, "example.org", cookie.Domain)
	assert.Equal(t, 600, cookie.MaxAge)
	assert.True(t, cookie.Secure)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
}

func TestOAuthSessions_StartReusesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := NewOAuthSessions(NewMemoryStateStore(time.Minute), testOAuthSessionConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/linkedin/login", nil)
	c.Request.AddCookie(&http.Cookie{Name: "oauth_linkedin", Value: "existing"})

	session, err := sessions.Start(c)
	require.NoError(t, err)
	assert.Equal(t, "existing", session.ID())
	assert.Empty(t, w.Result().Cookies())
}

func TestOAuthSession_BeginLastWriteWins(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := NewOAuthSessions(NewMemoryStateStore(time.Minute), testOAuthSessionConfig())
	ctx := context.Background()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	session, err := sessions.Start(c)
	require.NoError(t, err)

	first, err := session.Begin(ctx, "/First")
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := session.Begin(ctx, "/Second")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	csrf, err := session.CurrentCSRF(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, csrf)

	returnTo, err := session.CurrentReturnTo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/Second", returnTo)
}

func TestOAuthSessions_ResumeWithoutCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := new(mocks.MockStateStore)
	sessions := NewOAuthSessions(store, testOAuthSessionConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/linkedin/callback", nil)

	session := sessions.Resume(c)
	csrf, err := session.CurrentCSRF(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, csrf)

	// no cookie means the store is never consulted
	store.AssertNotCalled(t, "Load", mock.Anything, mock.Anything)
}

func TestOAuthSession_StoreErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := new(mocks.MockStateStore)
	store.On("Save", mock.Anything, "sid", mock.AnythingOfType("*models.OAuthState"), 600*time.Second).
		Return(assert.AnError)
	store.On("Load", mock.Anything, "sid").Return(nil, assert.AnError)
	sessions := NewOAuthSessions(store, testOAuthSessionConfig())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.AddCookie(&http.Cookie{Name: "oauth_linkedin", Value: "sid"})

	session := sessions.Resume(c)
	_, err := session.Begin(context.Background(), "/Foo")
	assert.ErrorIs(t, err, assert.AnError)

	_, err = session.CurrentReturnTo(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}

func TestOAuthSession_StoresState(t *testing.T) {
	store := new(mocks.MockStateStore)
	store.On("Save", mock.Anything, "sid", mock.MatchedBy(func(s *models.OAuthState) bool {
		return len(s.CSRF) == 32 && s.ReturnTo == "/Foo"
	}), 600*time.Second).Return(nil)

	session := NewOAuthSessions(store, testOAuthSessionConfig()).session("sid")
	_, err := session.Begin(context.Background(), "/Foo")
	assert.NoError(t, err)
	store.AssertExpectations(t)
}
