package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Redirect target formatting

	"tabshare/internal/content"    // Content store (profile tabs)
	"tabshare/internal/domain"     // Domain models
	"tabshare/internal/identity"   // Identity store
	"tabshare/internal/middleware" // Acting user resolution
	"tabshare/internal/relation"   // Relationship engine

	"github.com/gin-gonic/gin" // Gin web framework
)

// UserSummary is the wire form of a user in follower/following listings
type UserSummary struct {
	ID       uint   `json:"id"`       // User ID
	Username string `json:"username"` // Username
}

// summarizeUsers maps users onto their wire form, never nil
func summarizeUsers(users []domain.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, UserSummary{ID: u.ID, Username: u.Username})
	}
	return out
}

// requireIdentity resolves the acting user for a toggle. Unauthenticated
// programmatic callers get 401 login_required; browsers are sent to the
// login page. The boolean reports whether the request may proceed.
func requireIdentity(c *gin.Context) (uint, bool) {
	actorID, ok := middleware.CurrentUserID(c)
	if ok {
		return actorID, true
	}
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return 0, false
	}
	c.Redirect(http.StatusFound, "/auth/login")
	return 0, false
}

// ToggleFollowHandler flips the follow edge from the acting user to the
// target user and answers with the resulting state
func ToggleFollowHandler(engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := requireIdentity(c)
		if !ok {
			return
		}
		targetID, ok := idParam(c)
		if !ok {
			return
		}
		following, err := engine.ToggleFollow(c.Request.Context(), actorID, targetID)
		if err != nil {
			fail(c, err)
			return
		}
		if wantsJSON(c) {
			c.JSON(http.StatusOK, gin.H{"following": following, "user_id": targetID})
			return
		}
		backTo(c, "/api/users/"+strconv.FormatUint(uint64(targetID), 10)) // Browser flow returns to the profile
	}
}

// ToggleFavoriteHandler flips the favorite edge from the acting user to the
// tab and answers with the resulting state
func ToggleFavoriteHandler(engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, ok := requireIdentity(c)
		if !ok {
			return
		}
		tabID, ok := idParam(c)
		if !ok {
			return
		}
		favorited, err := engine.ToggleFavorite(c.Request.Context(), actorID, tabID)
		if err != nil {
			fail(c, err)
			return
		}
		if wantsJSON(c) {
			c.JSON(http.StatusOK, gin.H{"favorited": favorited, "tab_id": tabID})
			return
		}
		backTo(c, "/") // Browser flow returns to where it came from
	}
}

// ProfileHandler serves a public user profile: the user, their tabs with
// length categories, derived counts, and the following flag for the current
// identity
func ProfileHandler(users *identity.Store, tabs *content.Store, engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		user, err := users.GetUserByID(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		owned, err := tabs.ListTabsByOwner(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		// Counts are derived from the edge tables on every request; a storage
		// failure is an error, never a silent zero
		followers, err := engine.CountFollowers(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		following, err := engine.CountFollowing(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		favorites, err := engine.CountFavorites(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		resp := gin.H{
			"user":            UserSummary{ID: user.ID, Username: user.Username},
			"tabs":            summarizeAll(owned),
			"followers_count": followers,
			"following_count": following,
			"favorites_count": favorites,
		}
		// Following flag for the viewing identity (never for self)
		if actorID, ok := middleware.CurrentUserID(c); ok && actorID != userID {
			isFollowing, err := engine.IsFollowing(ctx, actorID, userID)
			if err != nil {
				fail(c, err)
				return
			}
			resp["following"] = isFollowing
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListFollowersHandler serves the users following :id, username ascending
func ListFollowersHandler(users *identity.Store, engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		// The subject user must exist
		if _, err := users.GetUserByID(ctx, userID); err != nil {
			fail(c, err)
			return
		}
		followers, err := engine.ListFollowers(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"followers": summarizeUsers(followers)})
	}
}

// ListFollowingHandler serves the users :id follows, username ascending
func ListFollowingHandler(users *identity.Store, engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		// The subject user must exist
		if _, err := users.GetUserByID(ctx, userID); err != nil {
			fail(c, err)
			return
		}
		following, err := engine.ListFollowing(ctx, userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"following": summarizeUsers(following)})
	}
}

// ListFavoritesHandler serves the acting user's favorited tabs, most
// recently favorited first
func ListFavoritesHandler(engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID, exists := middleware.CurrentUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
			return
		}
		favorites, err := engine.ListFavorites(c.Request.Context(), actorID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"favorites": summarizeAll(favorites)})
	}
}
