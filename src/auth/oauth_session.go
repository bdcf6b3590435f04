package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/utils"
)

// OAuthSessions hands out the short-lived sessions that carry CSRF state
// between the login redirect and the provider callback.
type OAuthSessions struct {
	store models.StateStore
	cfg   config.OAuthSessionConfig
}

func NewOAuthSessions(store models.StateStore, cfg config.OAuthSessionConfig) *OAuthSessions {
	return &OAuthSessions{store: store, cfg: cfg}
}

// Start returns the browser's OAuth session, issuing a new cookie when the
// browser has none.
func (o *OAuthSessions) Start(c *gin.Context) (*OAuthSession, error) {
	if id, err := c.Cookie(o.cfg.CookieName); err == nil && id != "" {
		return o.session(id), nil
	}

	id, err := utils.RandomID(32)
	if err != nil {
		return nil, err
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     o.cfg.CookieName,
		Value:    id,
		Path:     "/",
		Domain:   o.cfg.CookieDomain,
		MaxAge:   int(o.cfg.TTL.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})
	return o.session(id), nil
}

// Resume returns the browser's OAuth session without creating one. A browser
// without the cookie gets a session that holds no state.
func (o *OAuthSessions) Resume(c *gin.Context) *OAuthSession {
	id, _ := c.Cookie(o.cfg.CookieName)
	return o.session(id)
}

func (o *OAuthSessions) session(id string) *OAuthSession {
	return &OAuthSession{id: id, store: o.store, cfg: o.cfg}
}

type OAuthSession struct {
	id    string
	store models.StateStore
	cfg   config.OAuthSessionConfig
}

func (s *OAuthSession) ID() string {
	return s.id
}

// Begin stores a fresh CSRF value and return path, replacing any earlier
// ones, and returns the CSRF value.
func (s *OAuthSession) Begin(ctx context.Context, returnTo string) (string, error) {
	csrf, err := utils.RandomHex(16)
	if err != nil {
		return "", err
	}
	state := &models.OAuthState{CSRF: csrf, ReturnTo: returnTo}
	if err := s.store.Save(ctx, s.id, state, s.cfg.TTL); err != nil {
		return "", err
	}
	return csrf, nil
}

func (s *OAuthSession) CurrentCSRF(ctx context.Context) (string, error) {
	state, err := s.load(ctx)
	if err != nil || state == nil {
		return "", err
	}
	return state.CSRF, nil
}

func (s *OAuthSession) CurrentReturnTo(ctx context.Context) (string, error) {
	state, err := s.load(ctx)
	if err != nil || state == nil {
		return "", err
	}
	return state.ReturnTo, nil
}

func (s *OAuthSession) load(ctx context.Context) (*models.OAuthState, error) {
	if s.id == "" {
		return nil, nil
	}
	return s.store.Load(ctx, s.id)
}
