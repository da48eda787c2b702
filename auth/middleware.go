package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/leiwu2020/salesagents/model"
)

// Gin context keys set by Middleware
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
)

// Identity is the resolved tenant context of an authenticated request.
// The user ID is the tenant ID: every data access is scoped to it.
type Identity struct {
	UserID   int64
	Username string
}

// UserLookup resolves a username from a validated token to a stored account.
// Implemented by store.SalesStore.
type UserLookup interface {
	GetUserByUsername(username string) (*model.User, error)
}

// Middleware validates the Bearer token and injects the caller's identity
// into the Gin context. Requests without a valid token for an existing
// account are rejected with 401 before any handler runs.
func Middleware(secret []byte, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No authorization header"})
			c.Abort()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			c.Abort()
			return
		}

		claims, err := ValidateJWT(parts[1], secret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			c.Abort()
			return
		}

		user, err := users.GetUserByUsername(claims.Username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Next()
	}
}

// IdentityFromContext returns the identity injected by Middleware.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	userID, ok := c.Get(ContextKeyUserID)
	if !ok {
		return Identity{}, false
	}
	username, ok := c.Get(ContextKeyUsername)
	if !ok {
		return Identity{}, false
	}

	id, ok := userID.(int64)
	if !ok {
		return Identity{}, false
	}
	name, ok := username.(string)
	if !ok {
		return Identity{}, false
	}

	return Identity{UserID: id, Username: name}, true
}
