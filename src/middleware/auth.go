package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

type AuthMiddleware struct {
	sessionStore models.SessionStore
	accounts     models.AccountStore
	cookieName   string
}

func NewAuthMiddleware(sessionStore models.SessionStore, accounts models.AccountStore, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{
		sessionStore: sessionStore,
		accounts:     accounts,
		cookieName:   cookieName,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := m.sessionID(c)
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		if !m.load(c, sessionID) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		if err := m.sessionStore.RefreshSession(c.Request.Context(), sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh session"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID := m.sessionID(c); sessionID != "" && m.load(c, sessionID) {
			m.sessionStore.RefreshSession(c.Request.Context(), sessionID)
		}
		c.Next()
	}
}

// RequirePermission only lets members of group through. It must run after
// RequireAuth.
func RequirePermission(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(c.GetStringSlice(models.CtxKeyGroups), group) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) sessionID(c *gin.Context) string {
	sessionID, err := c.Cookie(m.cookieName)
	if err != nil {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			sessionID = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	return sessionID
}

// load resolves the session's account and groups into the request context.
func (m *AuthMiddleware) load(c *gin.Context, sessionID string) bool {
	ctx := c.Request.Context()

	session, err := m.sessionStore.GetSession(ctx, sessionID)
	if err != nil {
		return false
	}

	account, err := m.accounts.GetAccount(ctx, session.UserID)
	if err != nil {
		return false
	}

	groups, err := m.accounts.Groups(ctx, account.ID)
	if err != nil {
		return false
	}

	c.Set(models.CtxKeyAccount, account)
	c.Set(models.CtxKeyGroups, groups)
	c.Set(models.CtxKeySession, session)
	return true
}
