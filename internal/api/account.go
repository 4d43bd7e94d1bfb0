package api

import (
	"net/http" // HTTP status codes
	"strings"  // Input trimming

	"tabshare/internal/identity"   // Identity store
	"tabshare/internal/middleware" // Acting user resolution
	"tabshare/internal/storage"    // Avatar object store
	"tabshare/internal/utils"      // Token cookie handling

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// Request struct for profile edits; an empty password keeps the current one
type UpdateAccountRequest struct {
	Username string `json:"username" form:"username" binding:"required"` // New username
	Email    string `json:"email" form:"email" binding:"required"`       // New email
	Password string `json:"password" form:"password"`                    // Optional new password
}

// Request struct for account deletion; both confirmations are required
type DeleteAccountRequest struct {
	ConfirmPassword string `json:"confirm_password" form:"confirm_password" binding:"required"` // Current password
	ConfirmDeletion bool   `json:"confirm_deletion" form:"confirm_deletion"`                    // Explicit checkbox
}

// UpdateAccountHandler edits the acting user's profile
func UpdateAccountHandler(store *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.CurrentUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateAccountRequest
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username and email are required"})
			return
		}
		err := store.UpdateProfile(c.Request.Context(), userID,
			strings.TrimSpace(req.Username), strings.TrimSpace(req.Email), req.Password)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
	}
}

// UploadAvatarHandler stores a new avatar image in the object store and
// swaps the user's avatar key; the replaced object is removed best-effort
func UploadAvatarHandler(store *identity.Store, avatars *storage.AvatarStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.CurrentUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		file, err := c.FormFile("avatar") // Multipart field "avatar"
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
			return
		}
		if !storage.AllowedFile(file.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format"})
			return
		}
		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open file"})
			return
		}
		defer src.Close()
		ctx := c.Request.Context()
		// Upload first, then swap the key on the user record
		key, err := avatars.Put(ctx, file.Filename, file.Header.Get("Content-Type"), src, file.Size)
		if err != nil {
			fail(c, err)
			return
		}
		previous, err := store.SetAvatar(ctx, userID, key)
		if err != nil {
			// The record still points at the old avatar; drop the orphan
			_ = avatars.Remove(ctx, key)
			fail(c, err)
			return
		}
		// Old object cleanup is best-effort; a leaked object is harmless
		if err := avatars.Remove(ctx, previous); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,   // User whose avatar changed
				"key":     previous, // Orphaned object key
				"error":   err.Error(),
			}).Warn("Failed to remove replaced avatar")
		}
		c.JSON(http.StatusOK, gin.H{"message": "Avatar uploaded", "avatar_url": avatars.URL(key)})
	}
}

// DeleteAccountHandler removes the acting user's account after password
// confirmation. The cascade (tabs, follow edges, favorite edges) is a single
// transaction: on any failure the account and its tabs stay intact.
func DeleteAccountHandler(store *identity.Store, avatars *storage.AvatarStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := middleware.CurrentUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req DeleteAccountRequest
		if err := c.ShouldBind(&req); err != nil || !req.ConfirmDeletion {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Deletion must be confirmed with the current password"})
			return
		}
		ctx := c.Request.Context()
		user, err := store.GetUserByID(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		// Re-verify the credential before anything destructive
		if _, err := store.VerifyCredential(ctx, user.Username, req.ConfirmPassword); err != nil {
			fail(c, err)
			return
		}
		avatarKey := user.AvatarKey // Remember before the row disappears
		if err := store.DeleteUser(ctx, userID); err != nil {
			fail(c, err)
			return
		}
		// Avatar object cleanup after the committed delete, best-effort
		if err := avatars.Remove(ctx, avatarKey); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,
				"key":     avatarKey,
				"error":   err.Error(),
			}).Warn("Failed to remove avatar of deleted account")
		}
		c.SetCookie(utils.TokenCookie, "", -1, "/", "", false, true) // Sign the browser out
		c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
	}
}
