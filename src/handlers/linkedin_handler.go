package handlers

import (
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/utils"
)

const (
	probeCacheKey   = "linkedin:probe"
	defaultLinkText = "Log in with LinkedIn"
)

var loginButton = template.Must(template.New("button").Parse(
	`<a class="{{.Class}}" href="{{.Href}}" rel="nofollow">{{.Text}}</a>`))

// LinkedInHandler serves the informational LinkedIn endpoints.
type LinkedInHandler struct {
	cfg    *config.Config
	cache  models.JSONCache
	prober *Prober
	now    func() time.Time
}

func NewLinkedInHandler(cfg *config.Config, cache models.JSONCache) *LinkedInHandler {
	return &LinkedInHandler{
		cfg:    cfg,
		cache:  cache,
		prober: NewProber(&cfg.LinkedIn),
		now:    time.Now,
	}
}

func (h *LinkedInHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now(),
	})
}

type setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

// Status reports the effective configuration with secrets masked. With
// ?action=test it also probes the provider; refresh=1 skips the cached result.
func (h *LinkedInHandler) Status(c *gin.Context) {
	l := h.cfg.LinkedIn
	s := h.cfg.Session
	settings := []setting{
		{"client_id", l.ClientID, l.ClientID != ""},
		{"client_secret", utils.MaskSecret(l.ClientSecret), l.ClientSecret != ""},
		{"redirect_uri", l.RedirectURI, l.RedirectURI != ""},
		{"hmac_key", utils.MaskSecret(l.HMACKey), l.HMACKey != ""},
		{"auto_login_url", l.AutoLoginURL, l.AutoLoginURL != ""},
		{"default_return_to", l.DefaultReturnTo, l.DefaultReturnTo != ""},
		{"oauth_session_backend", h.cfg.OAuthSession.Backend, h.cfg.OAuthSession.Backend != ""},
		{"oauth_cookie_domain", h.cfg.OAuthSession.CookieDomain, h.cfg.OAuthSession.CookieDomain != ""},
		{"cookie_domain", s.CookieDomain, s.CookieDomain != ""},
		{"cookie_same_site", s.CookieSameSite, s.CookieSameSite != ""},
	}

	response := gin.H{
		"settings":   settings,
		"debug":      h.cfg.Debug,
		"configured": len(h.cfg.MissingProviderSettings(true)) == 0 && l.HMACKey != "",
	}

	if c.Query("action") == "test" {
		results, cached := h.probe(c)
		response["probe"] = results
		response["probe_cached"] = cached
	}

	c.JSON(http.StatusOK, response)
}

func (h *LinkedInHandler) probe(c *gin.Context) ([]models.ProbeResult, bool) {
	ctx := c.Request.Context()

	var results []models.ProbeResult
	if h.cache != nil && utils.IsTruthy(c.Query("refresh")) {
		if err := h.cache.Delete(ctx, probeCacheKey); err != nil {
			log.Printf("⚠️  Probe cache delete failed: %v", err)
		}
	}
	if h.cache != nil {
		found, err := h.cache.Get(ctx, probeCacheKey, &results)
		if err != nil {
			log.Printf("⚠️  Probe cache read failed: %v", err)
		}
		if found {
			return results, true
		}
	}

	results = append(h.configChecks(), h.prober.Probe(ctx)...)

	if h.cache != nil {
		if err := h.cache.Set(ctx, probeCacheKey, results); err != nil {
			log.Printf("⚠️  Probe cache write failed: %v", err)
		}
	}
	return results, false
}

func (h *LinkedInHandler) configChecks() []models.ProbeResult {
	l := h.cfg.LinkedIn
	var results []models.ProbeResult

	for _, name := range h.cfg.MissingProviderSettings(true) {
		results = append(results, models.ProbeResult{Label: name, Status: statusError, Detail: "not configured"})
	}
	if l.HMACKey == "" {
		results = append(results, models.ProbeResult{Label: "hmac_key", Status: statusError, Detail: "not configured"})
	}
	if u, err := url.Parse(l.RedirectURI); err == nil && l.RedirectURI != "" && u.Scheme != "https" {
		results = append(results, models.ProbeResult{Label: "redirect_uri", Status: statusWarn, Detail: "not served over https"})
	}
	if len(results) == 0 {
		results = append(results, models.ProbeResult{Label: "configuration", Status: statusOK, Detail: "all settings present"})
	}
	return results
}

// Welcome describes the current browser's session.
func (h *LinkedInHandler) Welcome(c *gin.Context) {
	s := h.cfg.Session
	response := gin.H{
		"logged_in": false,
		"login_url": h.cfg.LinkedIn.LoginURL,
		"cookie": gin.H{
			"name":      s.CookieName,
			"domain":    s.CookieDomain,
			"path":      s.CookiePath,
			"same_site": s.CookieSameSite,
			"secure":    s.CookieSecure,
		},
	}

	if value, ok := c.Get(models.CtxKeyAccount); ok {
		if account, ok := value.(*models.Account); ok {
			response["logged_in"] = true
			response["username"] = account.Username
			response["user_id"] = account.ID
			response["groups"] = c.GetStringSlice(models.CtxKeyGroups)
		}
	}

	c.JSON(http.StatusOK, response)
}

// LoginButton renders an HTML fragment linking to the login endpoint.
func (h *LinkedInHandler) LoginButton(c *gin.Context) {
	class := "linkedin-login-link"
	if c.DefaultQuery("type", "button") == "button" {
		class = "linkedin-login-button"
	}

	text := c.Query("text")
	if text == "" {
		text = defaultLinkText
	}

	returnTo := utils.NormalizeReturnTo(c.Query("returnTo"), h.cfg.LinkedIn.DefaultReturnTo)
	href := h.cfg.LinkedIn.LoginURL + "?returnTo=" + url.QueryEscape(returnTo)

	c.Render(http.StatusOK, render.HTML{
		Template: loginButton,
		Name:     "button",
		Data: gin.H{
			"Class": class,
			"Href":  href,
			"Text":  text,
		},
	})
}
