package middleware

import (
	"net/http" // HTTP status codes

	"tabshare/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserIDKey is the context key the auth middleware stores the acting user under
const UserIDKey = "userID"

// JWTAuthMiddleware validates the JWT (Authorization header or token cookie)
// and stores the acting user ID in the request context. Requests without a
// valid identity are rejected.
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := utils.TokenFromRequest(c) // Extract the token string
		if tokenStr == "" {
			// No identity at all
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}

// OptionalJWTMiddleware resolves an identity when one is presented but lets
// anonymous requests through. Tab creation allows anonymous authorship, and
// read endpoints use the identity only to decorate responses with
// following/favorited state.
func OptionalJWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := utils.TokenFromRequest(c); tokenStr != "" {
			if claims, err := utils.ParseJWT(tokenStr, secret); err == nil {
				c.Set(UserIDKey, claims.UserID) // Store userID in context
			}
		}
		c.Next() // Anonymous is fine
	}
}

// CurrentUserID returns the acting user ID from the context, if any
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
