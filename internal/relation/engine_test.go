package relation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tabshare/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.Tab{}, &domain.FollowEdge{}, &domain.FavoriteEdge{}))
	return db
}

// seedUser inserts a user with a throwaway credential
func seedUser(t *testing.T, db *gorm.DB, name string) domain.User {
	t.Helper()
	u := domain.User{Username: name, Email: name + "@example.com", PasswordHash: "irrelevant"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

// seedTab inserts a tab owned by ownerID (nil for anonymous)
func seedTab(t *testing.T, db *gorm.DB, title string, ownerID *uint) domain.Tab {
	t.Helper()
	speed := 120
	tab := domain.Tab{Title: title, Artist: "artist", Content: "e |---|", Difficulty: 3, SpeedBPM: &speed, UserID: ownerID}
	require.NoError(t, db.Create(&tab).Error)
	return tab
}

func TestToggleFollowLifecycle(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// First toggle creates the edge
	following, err := engine.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	got, err := engine.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, got)

	// Directed: bob does not follow alice
	got, err = engine.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, got)

	// Second toggle removes the edge
	following, err = engine.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)

	got, err = engine.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestToggleFollowSelf(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	_, err := engine.ToggleFollow(ctx, alice.ID, alice.ID)
	require.ErrorIs(t, err, ErrSelfFollow)

	// State unchanged
	n, err := engine.CountFollowing(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestToggleFollowMissingTarget(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	alice := seedUser(t, db, "alice")

	_, err := engine.ToggleFollow(context.Background(), alice.ID, alice.ID+1000)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFollowDeletedActor(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// Bob's account is deleted but his ID is still in circulation (a token
	// issued before the deletion). The toggle must refuse to write an edge
	// for a user that no longer exists.
	require.NoError(t, db.Delete(&domain.User{}, bob.ID).Error)

	_, err := engine.ToggleFollow(ctx, bob.ID, alice.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// No phantom edge: the derived count agrees with the listing
	followers, err := engine.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	n, err := engine.CountFollowers(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, followers)
	assert.Equal(t, int64(len(followers)), n)
}

func TestToggleFavoriteLifecycle(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	tab := seedTab(t, db, "Enter Sandman", nil)

	favorited, err := engine.ToggleFavorite(ctx, alice.ID, tab.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	got, err := engine.IsFavorited(ctx, alice.ID, tab.ID)
	require.NoError(t, err)
	assert.True(t, got)

	favorited, err = engine.ToggleFavorite(ctx, alice.ID, tab.ID)
	require.NoError(t, err)
	assert.False(t, favorited)

	got, err = engine.IsFavorited(ctx, alice.ID, tab.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestToggleFavoriteMissingTab(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	alice := seedUser(t, db, "alice")

	_, err := engine.ToggleFavorite(context.Background(), alice.ID, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestToggleFavoriteDeletedActor(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	bob := seedUser(t, db, "bob")
	tab := seedTab(t, db, "tune", nil)

	require.NoError(t, db.Delete(&domain.User{}, bob.ID).Error)

	_, err := engine.ToggleFavorite(ctx, bob.ID, tab.ID)
	require.ErrorIs(t, err, ErrNotFound)

	n, err := engine.CountTabFavorites(ctx, tab.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDuplicateEdgeRejectedByStorage(t *testing.T) {
	db := newTestDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// The composite primary key is what makes two concurrent inserts on the
	// same pair impossible; the second must fail as a duplicate, cleanly.
	require.NoError(t, db.Create(&domain.FollowEdge{FollowerID: alice.ID, FollowedID: bob.ID}).Error)
	err := db.Create(&domain.FollowEdge{FollowerID: alice.ID, FollowedID: bob.ID}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCountsMatchLists(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	tab1 := seedTab(t, db, "one", nil)
	tab2 := seedTab(t, db, "two", nil)

	// An arbitrary toggle sequence, including a flip back and forth
	_, err := engine.ToggleFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFavorite(ctx, alice.ID, tab1.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFavorite(ctx, alice.ID, tab2.ID)
	require.NoError(t, err)
	_, err = engine.ToggleFavorite(ctx, alice.ID, tab2.ID)
	require.NoError(t, err)

	for _, u := range []domain.User{alice, bob, carol} {
		followers, err := engine.ListFollowers(ctx, u.ID)
		require.NoError(t, err)
		nFollowers, err := engine.CountFollowers(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(followers)), nFollowers, "followers of %s", u.Username)

		following, err := engine.ListFollowing(ctx, u.ID)
		require.NoError(t, err)
		nFollowing, err := engine.CountFollowing(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(following)), nFollowing, "following of %s", u.Username)

		favorites, err := engine.ListFavorites(ctx, u.ID)
		require.NoError(t, err)
		nFavorites, err := engine.CountFavorites(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(len(favorites)), nFavorites, "favorites of %s", u.Username)
	}
}

func TestListFollowersOrderedByUsername(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	target := seedUser(t, db, "target")
	zed := seedUser(t, db, "zed")
	ann := seedUser(t, db, "ann")
	mia := seedUser(t, db, "mia")

	// Follow in an order unrelated to the expected output
	for _, follower := range []domain.User{zed, ann, mia} {
		_, err := engine.ToggleFollow(ctx, follower.ID, target.ID)
		require.NoError(t, err)
	}

	followers, err := engine.ListFollowers(ctx, target.ID)
	require.NoError(t, err)
	names := make([]string, 0, len(followers))
	for _, u := range followers {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"ann", "mia", "zed"}, names)

	// Same ordering rule on the other direction
	for _, followed := range []domain.User{mia, zed} {
		_, err := engine.ToggleFollow(ctx, target.ID, followed.ID)
		require.NoError(t, err)
	}
	following, err := engine.ListFollowing(ctx, target.ID)
	require.NoError(t, err)
	names = names[:0]
	for _, u := range following {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"mia", "zed"}, names)
}

func TestListFavoritesOrderedByEdgeCreation(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	first := seedTab(t, db, "first", nil)
	second := seedTab(t, db, "second", nil)
	third := seedTab(t, db, "third", nil)

	for _, tab := range []domain.Tab{first, second, third} {
		_, err := engine.ToggleFavorite(ctx, alice.ID, tab.ID)
		require.NoError(t, err)
	}
	// Pin distinct edge timestamps so the ordering is unambiguous
	now := time.Now()
	for i, tab := range []domain.Tab{first, second, third} {
		require.NoError(t, db.Model(&domain.FavoriteEdge{}).
			Where("user_id = ? AND tab_id = ?", alice.ID, tab.ID).
			Update("created_at", now.Add(time.Duration(i)*time.Minute)).Error)
	}

	favorites, err := engine.ListFavorites(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 3)
	// Most recently favorited first, regardless of tab creation order
	assert.Equal(t, "third", favorites[0].Title)
	assert.Equal(t, "second", favorites[1].Title)
	assert.Equal(t, "first", favorites[2].Title)
}

func TestCountTabFavorites(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	tab := seedTab(t, db, "tune", nil)

	for _, u := range []domain.User{alice, bob} {
		_, err := engine.ToggleFavorite(ctx, u.ID, tab.ID)
		require.NoError(t, err)
	}
	n, err := engine.CountTabFavorites(ctx, tab.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
