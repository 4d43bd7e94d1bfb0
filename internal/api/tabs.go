package api

import (
	"context"  // Cache interface signatures
	"errors"   // Sentinel error matching
	"net/http" // HTTP status codes
	"strconv"  // Path parameter conversion
	"strings"  // Input trimming
	"time"     // Timestamp formatting

	"tabshare/internal/content"    // Content store
	"tabshare/internal/domain"     // Domain models
	"tabshare/internal/identity"   // Identity store (owner lookup)
	"tabshare/internal/middleware" // Acting user resolution
	"tabshare/internal/relation"   // Relationship engine (favorite decoration)
	"tabshare/internal/tabtext"    // Length classifier and highlighter

	"github.com/gin-gonic/gin" // Gin web framework
)

// tabsCacheKey caches the public /api/tabs listing
const tabsCacheKey = "tabs:api:all"

// tabsCacheTTL bounds staleness of the cached listing
const tabsCacheTTL = 60 * time.Second

// ListingCache is the slice of the cache the tab handlers need. Satisfied by
// utils.Cache in production and by an in-process map in tests.
type ListingCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TabSummary is the /api/tabs wire format
type TabSummary struct {
	ID         uint           `json:"id"`         // Tab ID
	Title      string         `json:"title"`      // Song title
	Artist     string         `json:"artist"`     // Performing artist
	Difficulty int            `json:"difficulty"` // Difficulty 1..5
	Length     tabtext.Length `json:"length"`     // SHORT / MEDIUM / LONG
	CreatedAt  *string        `json:"created_at"` // ISO-8601 timestamp or null
}

// summarize builds the wire form of a tab, deriving its length category
func summarize(t domain.Tab) TabSummary {
	var created *string
	if !t.CreatedAt.IsZero() {
		iso := t.CreatedAt.Format(time.RFC3339)
		created = &iso
	}
	label, _ := tabtext.Classify(t.Content)
	return TabSummary{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		Difficulty: t.Difficulty,
		Length:     label,
		CreatedAt:  created,
	}
}

// summarizeAll maps a tab slice onto its wire form, never nil
func summarizeAll(tabs []domain.Tab) []TabSummary {
	out := make([]TabSummary, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, summarize(t))
	}
	return out
}

// tabForm carries the writable tab fields; the six string lines arrive
// separately and are assembled into the stored content, high e first
type tabForm struct {
	Title    string `json:"title" form:"title" binding:"required"`   // Song title
	Artist   string `json:"artist" form:"artist" binding:"required"` // Performing artist
	StringE  string `json:"string_e" form:"string_e"`                // High e string
	StringB  string `json:"string_b" form:"string_b"`                // B string
	StringG  string `json:"string_g" form:"string_g"`                // G string
	StringD  string `json:"string_d" form:"string_d"`                // D string
	StringA  string `json:"string_a" form:"string_a"`                // A string
	StringLE string `json:"string_E" form:"string_E"`                // Low E string
	SpeedBPM *int   `json:"speed_bpm" form:"speed_bpm"`              // Optional speed in BPM
}

// input assembles the store-level tab input from the form
func (f *tabForm) input(ownerID *uint) content.TabInput {
	return content.TabInput{
		Title:  strings.TrimSpace(f.Title),
		Artist: strings.TrimSpace(f.Artist),
		Content: tabtext.AssembleContent(
			strings.TrimSpace(f.StringE), strings.TrimSpace(f.StringB),
			strings.TrimSpace(f.StringG), strings.TrimSpace(f.StringD),
			strings.TrimSpace(f.StringA), strings.TrimSpace(f.StringLE)),
		SpeedBPM: f.SpeedBPM,
		OwnerID:  ownerID,
	}
}

// idParam parses the numeric :id path parameter
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

// actorPtr returns the acting user ID as a nullable pointer for the
// ownership checks (nil means anonymous)
func actorPtr(c *gin.Context) *uint {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id
	}
	return nil
}

// ListTabsAPIHandler serves the public JSON tab listing, cached in Redis.
// The cache TTL plus invalidation on every tab mutation keeps it close to
// fresh; nothing consistency-critical reads through it.
func ListTabsAPIHandler(store *content.Store, cache ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached []TabSummary
		// Try the cache first
		if found, err := cache.Get(ctx, tabsCacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, cached)
			return
		}
		tabs, err := store.ListTabs(ctx)
		if err != nil {
			fail(c, err)
			return
		}
		result := summarizeAll(tabs)
		_ = cache.Set(ctx, tabsCacheKey, result, tabsCacheTTL) // Best-effort cache fill
		c.JSON(http.StatusOK, result)
	}
}

// ListRecentTabsHandler serves the newest tabs, ten by default
func ListRecentTabsHandler(store *content.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 10 // Default number of recent tabs
		if l := c.Query("limit"); l != "" {
			if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
				limit = v // Set limit if valid
			}
		}
		tabs, err := store.ListRecentTabs(c.Request.Context(), limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, summarizeAll(tabs))
	}
}

// SearchTabsHandler finds tabs by title or artist substring
func SearchTabsHandler(store *content.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("query"))
		if query == "" {
			// An empty query matches nothing, mirroring the search page
			c.JSON(http.StatusOK, gin.H{"query": query, "results": []TabSummary{}})
			return
		}
		tabs, err := store.SearchTabs(c.Request.Context(), query)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"query": query, "results": summarizeAll(tabs)})
	}
}

// GetTabHandler serves a single tab with highlighted content, length
// category, owner summary and favorite state for the current identity
func GetTabHandler(store *content.Store, users *identity.Store, engine *relation.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()
		tab, err := store.GetTabByID(ctx, id)
		if err != nil {
			fail(c, err)
			return
		}
		label, class := tabtext.Classify(tab.Content)
		resp := gin.H{
			"tab":          tab,                          // Full record
			"content_html": tabtext.Highlight(tab.Content), // Highlighted markup
			"length":       label,                        // SHORT / MEDIUM / LONG
			"length_class": class,                        // Display class tag
		}
		// Owner summary when the tab is not anonymous. A missing owner row
		// just means the account is gone; the tab stays readable without it.
		// Any other lookup failure fails the request.
		if tab.UserID != nil {
			owner, err := users.GetUserByID(ctx, *tab.UserID)
			switch {
			case err == nil:
				resp["owner"] = gin.H{"id": owner.ID, "username": owner.Username}
			case !errors.Is(err, identity.ErrNotFound):
				fail(c, err)
				return
			}
		}
		// Favorite count is derived on every read
		count, err := engine.CountTabFavorites(ctx, tab.ID)
		if err != nil {
			fail(c, err)
			return
		}
		resp["favorite_count"] = count
		// Favorite state when an identity is present
		if actorID, ok := middleware.CurrentUserID(c); ok {
			favorited, err := engine.IsFavorited(ctx, actorID, tab.ID)
			if err != nil {
				fail(c, err)
				return
			}
			resp["favorited"] = favorited
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CreateTabHandler stores a new tab; anonymous authorship is allowed, so the
// identity is optional
func CreateTabHandler(store *content.Store, cache ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form tabForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and artist are required"})
			return
		}
		tab, err := store.CreateTab(c.Request.Context(), form.input(actorPtr(c)))
		if err != nil {
			fail(c, err)
			return
		}
		_ = cache.Delete(c.Request.Context(), tabsCacheKey) // Invalidate the listing cache
		c.JSON(http.StatusCreated, gin.H{"tab": tab})
	}
}

// UpdateTabHandler edits a tab. Owned tabs require the owner; anonymous tabs
// are editable by anyone with the link, which is the documented policy.
func UpdateTabHandler(store *content.Store, cache ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var form tabForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and artist are required"})
			return
		}
		tab, err := store.UpdateTab(c.Request.Context(), id, actorPtr(c), form.input(nil))
		if err != nil {
			fail(c, err)
			return
		}
		_ = cache.Delete(c.Request.Context(), tabsCacheKey) // Invalidate the listing cache
		c.JSON(http.StatusOK, gin.H{"tab": tab})
	}
}

// DeleteTabHandler removes a tab under the same ownership policy
func DeleteTabHandler(store *content.Store, cache ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := store.DeleteTab(c.Request.Context(), id, actorPtr(c)); err != nil {
			fail(c, err)
			return
		}
		_ = cache.Delete(c.Request.Context(), tabsCacheKey) // Invalidate the listing cache
		c.JSON(http.StatusOK, gin.H{"message": "Tab deleted"})
	}
}
