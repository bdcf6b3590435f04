package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

// UsersHandler lists and removes accounts provisioned through LinkedIn.
type UsersHandler struct {
	accounts models.AccountAdmin
}

func NewUsersHandler(accounts models.AccountAdmin) *UsersHandler {
	return &UsersHandler{accounts: accounts}
}

func (h *UsersHandler) ListUsers(c *gin.Context) {
	users, err := h.accounts.ListBoundUsers(c.Request.Context())
	if err != nil {
		log.Printf("Failed to list bound users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	if users == nil {
		users = []models.BoundUser{}
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"count": len(users),
	})
}

// DeleteUser hard-deletes the account bound to :sub. The optional user_id
// query parameter guards against deleting a re-bound subject.
func (h *UsersHandler) DeleteUser(c *gin.Context) {
	sub := c.Param("sub")
	if sub == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sub is required"})
		return
	}

	var userID uint64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be a positive integer"})
			return
		}
		userID = id
	}

	err := h.accounts.PurgeFederatedAccount(c.Request.Context(), sub, userID)
	switch {
	case err == nil:
		log.Printf("🗑️  Deleted LinkedIn account %s (requested by %s)", sub, actor(c))
		c.JSON(http.StatusOK, gin.H{"message": "User deleted", "sub": sub})
	case errors.Is(err, models.ErrIntegrityGuard):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "User not deleted",
			"warning": "The account has edits or logged actions. Block it instead.",
		})
	case errors.Is(err, models.ErrUserMismatch):
		c.JSON(http.StatusConflict, gin.H{"error": "The subject is bound to a different user"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No binding for this subject"})
	default:
		log.Printf("Failed to delete LinkedIn account %s: %v", sub, err)
		c.JSON(models.HTTPStatus(err), gin.H{"error": "Failed to delete user"})
	}
}

func actor(c *gin.Context) string {
	if account, ok := c.Get(models.CtxKeyAccount); ok {
		if a, ok := account.(*models.Account); ok {
			return a.Username
		}
	}
	return "unknown"
}
