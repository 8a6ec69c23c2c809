package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/albertomtferreira/devflow/internal/auth"
	"github.com/albertomtferreira/devflow/internal/models"
)

const userContextName = "user"

// sessionCookieName is the cookie the dashboard stores its session
// token in; API clients send the same token as a bearer header.
const sessionCookieName = "devflow_session"

// AuthMiddleware validates session tokens and sets the acting user in
// the Gin context.
func AuthMiddleware(provider auth.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionTokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := provider.ValidateSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(userContextName, user)
		c.Next()
	}
}

// UserFromContext retrieves the acting user from the Gin context.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(userContextName)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

// RequireAuth checks that a user is authenticated, writing the error
// response if not.
func RequireAuth(c *gin.Context) (*models.User, bool) {
	user, ok := UserFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

// SessionTokenFromRequest extracts the session token from the session
// cookie or the Authorization header.
func SessionTokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
