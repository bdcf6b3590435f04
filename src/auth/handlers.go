package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/diag"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/signer"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/utils"
)

type Handler struct {
	cfg          *config.Config
	provider     models.IdentityProvider
	oauth        *OAuthSessions
	signer       *signer.Signer
	dir          models.Directory
	provisioner  *Provisioner
	sessionStore models.SessionStore
	diag         *diag.Logger
	now          func() time.Time
}

func NewHandler(
	cfg *config.Config,
	provider models.IdentityProvider,
	oauth *OAuthSessions,
	signer *signer.Signer,
	dir models.Directory,
	sessionStore models.SessionStore,
	logger *diag.Logger,
) *Handler {
	return &Handler{
		cfg:          cfg,
		provider:     provider,
		oauth:        oauth,
		signer:       signer,
		dir:          dir,
		provisioner:  NewProvisioner(dir, cfg.Accounts),
		sessionStore: sessionStore,
		diag:         logger,
		now:          time.Now,
	}
}

// SetClock replaces the time source used for token expiry and account stamps.
func (h *Handler) SetClock(now func() time.Time) {
	h.now = now
	h.provisioner.now = now
}

// Login starts the authorization code flow.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	if missing := h.cfg.MissingProviderSettings(false); len(missing) > 0 {
		h.diag.Log("LOGIN_CONFIG_ERROR", diag.Fields{"missing": missing})
		c.String(http.StatusInternalServerError, "LinkedIn SSO configuration error: missing %s", strings.Join(missing, ", "))
		return
	}

	returnTo := utils.NormalizeReturnTo(c.Query("returnTo"), h.cfg.LinkedIn.DefaultReturnTo)

	session, err := h.oauth.Start(c)
	if err != nil {
		h.fail(c, "LOGIN_SESSION_ERROR", http.StatusInternalServerError, msgInternal, err)
		return
	}
	csrf, err := session.Begin(ctx, returnTo)
	if err != nil {
		h.fail(c, "LOGIN_STATE_ERROR", http.StatusInternalServerError, msgInternal, err)
		return
	}

	state, err := encodeState(&models.OAuthState{CSRF: csrf, ReturnTo: returnTo})
	if err != nil {
		h.fail(c, "LOGIN_STATE_ERROR", http.StatusInternalServerError, msgInternal, err)
		return
	}

	h.diag.Log("LOGIN_REDIRECT", diag.Fields{"returnTo": returnTo, "oauth_session": session.ID() != ""})
	c.Redirect(http.StatusFound, h.provider.AuthCodeURL(state))
}

// Callback exchanges the authorization code, reads the profile and hands a
// signed token to the auto-login endpoint.
func (h *Handler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if missing := h.cfg.MissingProviderSettings(true); len(missing) > 0 {
		h.fail(c, "CALLBACK_CONFIG_ERROR", http.StatusInternalServerError, msgConfigInvalid,
			fmt.Errorf("missing %s: %w", strings.Join(missing, ", "), models.ErrConfiguration))
		return
	}

	code := c.Query("code")
	rawState := c.Query("state")
	if code == "" || rawState == "" {
		h.fail(c, "CALLBACK_PARAMS_MISSING", http.StatusBadRequest, msgParamsMissing,
			fmt.Errorf("code=%t state=%t: %w", code != "", rawState != "", models.ErrParamsMissing))
		return
	}

	state := decodeState(rawState)
	session := h.oauth.Resume(c)

	storedCSRF, err := session.CurrentCSRF(ctx)
	if err != nil {
		h.fail(c, "CALLBACK_STATE_ERROR", http.StatusInternalServerError, msgInternal, err)
		return
	}
	if state.CSRF != "" && storedCSRF != "" &&
		subtle.ConstantTimeCompare([]byte(state.CSRF), []byte(storedCSRF)) != 1 {
		h.fail(c, "CALLBACK_CSRF_MISMATCH", http.StatusForbidden, msgCSRFInvalid, models.ErrCSRFInvalid)
		return
	}

	returnTo := state.ReturnTo
	if returnTo == "" {
		returnTo, err = session.CurrentReturnTo(ctx)
		if err != nil {
			h.fail(c, "CALLBACK_STATE_ERROR", http.StatusInternalServerError, msgInternal, err)
			return
		}
	}
	returnTo = utils.NormalizeReturnTo(returnTo, h.cfg.LinkedIn.DefaultReturnTo)

	token, err := h.provider.Exchange(ctx, code)
	if err != nil {
		h.fail(c, "CALLBACK_TOKEN_EXCHANGE", http.StatusBadGateway, msgTokenExchange, err)
		return
	}

	info, err := h.provider.FetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		msg := msgProviderFailed
		if errors.Is(err, models.ErrUserinfoMissing) {
			msg = msgUserinfo
		}
		h.fail(c, "CALLBACK_USERINFO", http.StatusBadGateway, msg, err)
		return
	}

	now := h.now()
	if err := h.dir.SaveProviderToken(ctx, info.Sub, token, now); err != nil {
		h.fail(c, "CALLBACK_STORE_TOKEN", http.StatusInternalServerError, msgInternal, err)
		return
	}

	if !h.signer.Configured() {
		h.fail(c, "CALLBACK_HMAC_MISSING", http.StatusInternalServerError, msgConfigInvalid, models.ErrConfiguration)
		return
	}

	signed, err := h.signer.Sign(&models.HandoffPayload{
		Sub:        info.Sub,
		Name:       info.Name,
		Email:      info.Email,
		Picture:    info.Picture,
		GivenName:  info.GivenName,
		FamilyName: info.FamilyName,
		ReturnTo:   returnTo,
		Exp:        now.Add(h.cfg.LinkedIn.HandoffTTL).Unix(),
	})
	if err != nil {
		h.fail(c, "CALLBACK_SIGN_ERROR", http.StatusInternalServerError, msgInternal, err)
		return
	}

	target := h.cfg.LinkedIn.AutoLoginURL
	if strings.Contains(target, "?") {
		target += "&"
	} else {
		target += "?"
	}
	target += "token=" + url.QueryEscape(signed)

	h.diag.Log("CALLBACK_HANDOFF", diag.Fields{"sub": info.Sub, "returnTo": returnTo, "target": h.cfg.LinkedIn.AutoLoginURL})
	c.Redirect(http.StatusFound, target)
}

// AutoLogin consumes a handoff token, provisions the account and signs the
// browser in.
func (h *Handler) AutoLogin(c *gin.Context) {
	ctx := c.Request.Context()

	token := c.Query("token")
	if token == "" || !strings.Contains(token, ".") {
		h.reject(c, http.StatusBadRequest, "Bad token", models.ErrMalformedPayload)
		return
	}

	raw, err := h.signer.Verify(token)
	switch {
	case errors.Is(err, models.ErrConfiguration):
		h.reject(c, http.StatusInternalServerError, "Keys missing", err)
		return
	case errors.Is(err, models.ErrInvalidSignature):
		h.reject(c, http.StatusForbidden, "Invalid signature", err)
		return
	case err != nil:
		h.reject(c, http.StatusBadRequest, "Bad payload", err)
		return
	}

	var claims models.HandoffPayload
	if err := json.Unmarshal(raw, &claims); err != nil {
		h.reject(c, http.StatusBadRequest, "Bad payload", err)
		return
	}
	if claims.Expired(h.now()) {
		h.reject(c, http.StatusForbidden, "Token expired", models.ErrTokenExpired)
		return
	}
	if claims.Sub == "" || claims.Email == "" {
		h.reject(c, http.StatusBadRequest, "Missing user data", models.ErrMalformedPayload)
		return
	}

	returnTo := utils.NormalizeReturnTo(claims.ReturnTo, h.cfg.LinkedIn.DefaultReturnTo)

	if utils.IsTruthy(c.Query("debug")) && (h.cfg.Debug || h.callerIsAdmin(c)) {
		h.diag.Log("AUTOLOGIN_DEBUG", diag.Fields{"sub": claims.Sub})
		c.String(http.StatusOK, debugDump(&claims, returnTo))
		return
	}

	account, err := h.provisioner.Resolve(ctx, &claims)
	if err != nil {
		msg := "Login failed"
		if errors.Is(err, models.ErrAccountProvisioning) {
			msg = "Username not creatable"
		}
		h.reject(c, http.StatusInternalServerError, msg, err)
		return
	}

	now := h.now()
	if err := h.dir.BindAccount(ctx, claims.Sub, account, now); err != nil {
		h.reject(c, http.StatusInternalServerError, "Login failed", err)
		return
	}

	if previous, err := c.Cookie(h.cfg.Session.CookieName); err == nil && previous != "" {
		h.sessionStore.DeleteSession(ctx, previous)
	}

	session, err := h.sessionStore.CreateSession(ctx, account)
	if err != nil {
		h.reject(c, http.StatusInternalServerError, "Login failed", err)
		return
	}

	h.setSessionCookie(c, session.ID, h.sessionStore.Duration(), now)

	h.diag.Log("AUTOLOGIN_SUCCESS", diag.Fields{
		"sub":      claims.Sub,
		"user_id":  account.ID,
		"username": account.Username,
		"returnTo": returnTo,
	})
	c.Render(http.StatusOK, render.HTML{Template: redirectPage, Name: "redirect", Data: returnTo})
}

func (h *Handler) Logout(c *gin.Context) {
	if sessionID, err := c.Cookie(h.cfg.Session.CookieName); err == nil {
		h.sessionStore.DeleteSession(c.Request.Context(), sessionID)
	}

	h.setSessionCookie(c, "", -time.Second, h.now())

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) Me(c *gin.Context) {
	accountValue, exists := c.Get(models.CtxKeyAccount)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	account, ok := accountValue.(*models.Account)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": account, "groups": c.GetStringSlice(models.CtxKeyGroups)})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, lifetime time.Duration, now time.Time) {
	cfg := h.cfg.Session

	cookieDomain := cfg.CookieDomain
	if cookieDomain == "localhost" {
		cookieDomain = ""
	}

	cookie := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     cfg.CookiePath,
		Domain:   cookieDomain,
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: ParseSameSite(cfg.CookieSameSite),
	}
	if lifetime > 0 {
		cookie.MaxAge = int(lifetime.Seconds())
		cookie.Expires = now.Add(lifetime)
	} else {
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
	}
	http.SetCookie(c.Writer, cookie)
}

func (h *Handler) callerIsAdmin(c *gin.Context) bool {
	return slices.Contains(c.GetStringSlice(models.CtxKeyGroups), h.cfg.Accounts.AdminGroup)
}

// fail renders the generic callback error page.
func (h *Handler) fail(c *gin.Context, step string, status int, message string, err error) {
	h.diag.Log(step, diag.Fields{"status": status, "error": err.Error()})
	c.Render(status, render.HTML{Template: errorPage, Name: "error", Data: message})
}

// reject answers an auto-login request with a short plain-text reason.
func (h *Handler) reject(c *gin.Context, status int, message string, err error) {
	h.diag.Log("AUTOLOGIN_REJECTED", diag.Fields{"status": status, "reason": message, "error": err.Error()})
	c.String(status, message)
}

// ParseSameSite maps a configured SameSite name to its cookie mode; unknown
// values mean Lax.
func ParseSameSite(mode string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// encodeState packs the OAuth state parameter. It is not signed; the CSRF
// value inside is checked against the server-side copy.
func encodeState(state *models.OAuthState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// decodeState accepts padded or unpadded, standard or URL-safe base64. An
// undecodable value yields an empty state.
func decodeState(raw string) models.OAuthState {
	var state models.OAuthState
	data, err := signer.DecodeSegment(raw)
	if err != nil {
		return state
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return models.OAuthState{}
	}
	return state
}

func debugDump(claims *models.HandoffPayload, returnTo string) string {
	var b strings.Builder
	b.WriteString("LinkedIn auto-login debug\n\n")
	fmt.Fprintf(&b, "sub:         %s\n", claims.Sub)
	fmt.Fprintf(&b, "name:        %s\n", claims.Name)
	fmt.Fprintf(&b, "given_name:  %s\n", claims.GivenName)
	fmt.Fprintf(&b, "family_name: %s\n", claims.FamilyName)
	fmt.Fprintf(&b, "email:       %s\n", claims.Email)
	fmt.Fprintf(&b, "picture:     %s\n", claims.Picture)
	fmt.Fprintf(&b, "returnTo:    %s\n", returnTo)
	fmt.Fprintf(&b, "exp:         %s\n", time.Unix(claims.Exp, 0).UTC().Format(time.RFC3339))
	return b.String()
}
