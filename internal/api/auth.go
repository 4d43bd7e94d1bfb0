package api

import (
	"net/http" // HTTP status codes
	"strings"  // Input trimming

	"tabshare/internal/identity" // Identity store
	"tabshare/internal/utils"    // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration; accepts JSON and form bodies
type RegisterRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // Username must be provided
	Email    string `json:"email" form:"email" binding:"required"`       // Email must be provided
	Password string `json:"password" form:"password" binding:"required"` // Password must be provided
}

// Request struct for login; the username field also accepts an email
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // Username or email
	Password string `json:"password" form:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token  string `json:"token"`   // JWT token
	UserID uint   `json:"user_id"` // Authenticated user ID
}

// setTokenCookie stores the JWT for browser flows alongside the JSON token
func setTokenCookie(c *gin.Context, token string) {
	c.SetCookie(utils.TokenCookie, token, 24*60*60, "/", "", false, true)
}

// RegisterHandler creates a user account and signs the caller in
func RegisterHandler(store *identity.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			// Missing fields
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username, email and password are required"})
			return
		}
		user, err := store.CreateUser(c.Request.Context(),
			strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			fail(c, err)
			return
		}
		setTokenCookie(c, token) // Browser flows carry the token as a cookie
		c.JSON(http.StatusCreated, AuthResponse{Token: token, UserID: user.ID})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(store *identity.Store, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind request to struct
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
			return
		}
		// The identifier matches either username or email
		user, err := store.VerifyCredential(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, jwtSecret)
		if err != nil {
			fail(c, err)
			return
		}
		setTokenCookie(c, token)
		c.JSON(http.StatusOK, AuthResponse{Token: token, UserID: user.ID})
	}
}

// LogoutHandler clears the browser token cookie
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie(utils.TokenCookie, "", -1, "/", "", false, true) // Expire the cookie
		if wantsJSON(c) {
			c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
			return
		}
		c.Redirect(http.StatusFound, "/") // Browser flow goes home
	}
}
