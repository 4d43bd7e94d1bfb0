package content

import (
	"context"
	"fmt"
	"testing"

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

func TestCreateTabDefaults(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	tab, err := store.CreateTab(ctx, TabInput{Title: "Nothing Else Matters", Artist: "Metallica", Content: "e |---|"})
	require.NoError(t, err)
	assert.Equal(t, 3, tab.Difficulty)
	require.NotNil(t, tab.SpeedBPM)
	assert.Equal(t, 120, *tab.SpeedBPM)
	assert.Nil(t, tab.UserID, "no owner means anonymous")

	// Explicit speed is kept
	speed := 69
	tab, err = store.CreateTab(ctx, TabInput{Title: "t", Artist: "a", SpeedBPM: &speed})
	require.NoError(t, err)
	require.NotNil(t, tab.SpeedBPM)
	assert.Equal(t, 69, *tab.SpeedBPM)
}

func TestCreateTabValidation(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.CreateTab(ctx, TabInput{Title: "", Artist: "a"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = store.CreateTab(ctx, TabInput{Title: "t", Artist: ""})
	require.ErrorIs(t, err, ErrValidation)
}

func TestGetTabByIDNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)

	_, err := store.GetTabByID(context.Background(), 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateTabOwnership(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	owner := seedUser(t, db, "owner")
	stranger := seedUser(t, db, "stranger")

	owned, err := store.CreateTab(ctx, TabInput{Title: "owned", Artist: "a", OwnerID: &owner.ID})
	require.NoError(t, err)

	// Non-owner and anonymous callers are rejected
	_, err = store.UpdateTab(ctx, owned.ID, &stranger.ID, TabInput{Title: "x", Artist: "y"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = store.UpdateTab(ctx, owned.ID, nil, TabInput{Title: "x", Artist: "y"})
	require.ErrorIs(t, err, ErrForbidden)

	// The owner can edit
	updated, err := store.UpdateTab(ctx, owned.ID, &owner.ID, TabInput{Title: "renamed", Artist: "b", Content: "e |-1-|"})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "e |-1-|", updated.Content)
}

func TestAnonymousTabOpenToAnyone(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	visitor := seedUser(t, db, "visitor")

	// An ownerless tab is editable and deletable by any caller with the
	// link. That openness is the documented policy, not an accident.
	anon, err := store.CreateTab(ctx, TabInput{Title: "anon", Artist: "a"})
	require.NoError(t, err)

	_, err = store.UpdateTab(ctx, anon.ID, nil, TabInput{Title: "edited by nobody", Artist: "a"})
	require.NoError(t, err)
	_, err = store.UpdateTab(ctx, anon.ID, &visitor.ID, TabInput{Title: "edited by visitor", Artist: "a"})
	require.NoError(t, err)
	require.NoError(t, store.DeleteTab(ctx, anon.ID, nil))
}

func TestDeleteTabCascadesFavorites(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	fan := seedUser(t, db, "fan")
	other := seedUser(t, db, "other")

	tab, err := store.CreateTab(ctx, TabInput{Title: "doomed", Artist: "a"})
	require.NoError(t, err)
	keeper, err := store.CreateTab(ctx, TabInput{Title: "keeper", Artist: "a"})
	require.NoError(t, err)

	// Edges straight into the table; the cascade is what is under test
	require.NoError(t, db.Create(&domain.FavoriteEdge{UserID: fan.ID, TabID: tab.ID}).Error)
	require.NoError(t, db.Create(&domain.FavoriteEdge{UserID: other.ID, TabID: tab.ID}).Error)
	require.NoError(t, db.Create(&domain.FavoriteEdge{UserID: fan.ID, TabID: keeper.ID}).Error)

	require.NoError(t, store.DeleteTab(ctx, tab.ID, nil))

	var n int64
	require.NoError(t, db.Model(&domain.FavoriteEdge{}).Where("tab_id = ?", tab.ID).Count(&n).Error)
	assert.Zero(t, n, "no favorite edge may reference a deleted tab")
	require.NoError(t, db.Model(&domain.FavoriteEdge{}).Where("tab_id = ?", keeper.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n, "favorites of other tabs survive")
}

func TestSearchTabs(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.CreateTab(ctx, TabInput{Title: "Master of Puppets", Artist: "Metallica"})
	require.NoError(t, err)
	_, err = store.CreateTab(ctx, TabInput{Title: "Paranoid", Artist: "Black Sabbath"})
	require.NoError(t, err)

	// Case-insensitive on title
	results, err := store.SearchTabs(ctx, "pUpPeTs")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Master of Puppets", results[0].Title)

	// Case-insensitive on artist
	results, err = store.SearchTabs(ctx, "sabbath")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Paranoid", results[0].Title)

	// LIKE wildcards in the query match literally, not as wildcards
	results, err = store.SearchTabs(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = store.SearchTabs(ctx, "no such song")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTabsLiteralWildcards(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	_, err := store.CreateTab(ctx, TabInput{Title: "100% Cotton", Artist: "someone"})
	require.NoError(t, err)
	_, err = store.CreateTab(ctx, TabInput{Title: "snake_case blues", Artist: "someone"})
	require.NoError(t, err)
	_, err = store.CreateTab(ctx, TabInput{Title: "plain title", Artist: "someone"})
	require.NoError(t, err)

	// A % in the query only matches a literal % in the data
	results, err := store.SearchTabs(ctx, "0% cot")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% Cotton", results[0].Title)

	results, err = store.SearchTabs(ctx, "%")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% Cotton", results[0].Title)

	// Same for _, which would otherwise match any single character
	results, err = store.SearchTabs(ctx, "_")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "snake_case blues", results[0].Title)
}

func TestListTabsByOwner(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	author := seedUser(t, db, "author")

	_, err := store.CreateTab(ctx, TabInput{Title: "mine", Artist: "a", OwnerID: &author.ID})
	require.NoError(t, err)
	_, err = store.CreateTab(ctx, TabInput{Title: "not mine", Artist: "a"})
	require.NoError(t, err)

	owned, err := store.ListTabsByOwner(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "mine", owned[0].Title)

	// No rows is an empty slice, not an error
	none, err := store.ListTabsByOwner(ctx, author.ID+100)
	require.NoError(t, err)
	assert.Empty(t, none)
}
