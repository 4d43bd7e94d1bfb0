package relation

import (
	"context" // Request-scoped cancellation for all storage reads/writes
	"errors"  // Sentinel error matching

	"tabshare/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Engine manages the Follow (user -> user) and Favorite (user -> tab)
// relations. Edges are only ever created and destroyed through the toggle
// methods; counts are always derived from the edge tables, never stored.
type Engine struct {
	db *gorm.DB // Shared database handle
}

// NewEngine returns an Engine over the given database handle
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// ToggleFollow flips the follow edge (actorID -> targetID) and reports the
// resulting state. The existence check and the insert/delete run in one
// transaction, so a racing toggle on the same pair either wins cleanly or
// makes this call fail with ErrConflict; a partially applied edge is not
// possible.
func (e *Engine) ToggleFollow(ctx context.Context, actorID, targetID uint) (bool, error) {
	// Reject self-follows before touching storage; the check constraint on
	// follow_edges backstops this.
	if actorID == targetID {
		return false, ErrSelfFollow
	}
	var following bool // Resulting state after the toggle
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The actor must still exist; a valid token does not outlive the
		// account row.
		var actor domain.User
		if err := tx.First(&actor, actorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// The target must exist
		var target domain.User
		if err := tx.First(&target, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// Read the current edge state
		var edge domain.FollowEdge
		err := tx.Where("follower_id = ? AND followed_id = ?", actorID, targetID).First(&edge).Error
		switch {
		case err == nil:
			// PRESENT -> ABSENT: unfollow
			if err := tx.Where("follower_id = ? AND followed_id = ?", actorID, targetID).
				Delete(&domain.FollowEdge{}).Error; err != nil {
				return err
			}
			following = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			// ABSENT -> PRESENT: follow
			edge = domain.FollowEdge{FollowerID: actorID, FollowedID: targetID}
			if err := tx.Create(&edge).Error; err != nil {
				// A duplicate key here means a concurrent toggle created the
				// edge after our read; the transaction rolls back and the
				// caller retries with fresh state.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrConflict
				}
				return err
			}
			following = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	// Log the applied transition
	logrus.WithFields(logrus.Fields{
		"actor_id":  actorID,   // The follower
		"target_id": targetID,  // The followed user
		"following": following, // Resulting state
	}).Info("Follow toggled")
	return following, nil
}

// ToggleFavorite flips the favorite edge (actorID -> tabID) and reports the
// resulting state. Same transactional shape as ToggleFollow; there is no
// self-reference check because a user and a tab are different entity types.
func (e *Engine) ToggleFavorite(ctx context.Context, actorID, tabID uint) (bool, error) {
	var favorited bool // Resulting state after the toggle
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The actor must still exist
		var actor domain.User
		if err := tx.First(&actor, actorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// The tab must exist
		var tab domain.Tab
		if err := tx.First(&tab, tabID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// Read the current edge state
		var edge domain.FavoriteEdge
		err := tx.Where("user_id = ? AND tab_id = ?", actorID, tabID).First(&edge).Error
		switch {
		case err == nil:
			// PRESENT -> ABSENT: unfavorite
			if err := tx.Where("user_id = ? AND tab_id = ?", actorID, tabID).
				Delete(&domain.FavoriteEdge{}).Error; err != nil {
				return err
			}
			favorited = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			// ABSENT -> PRESENT: favorite
			edge = domain.FavoriteEdge{UserID: actorID, TabID: tabID}
			if err := tx.Create(&edge).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrConflict
				}
				return err
			}
			favorited = true
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	// Log the applied transition
	logrus.WithFields(logrus.Fields{
		"actor_id":  actorID,   // The user toggling
		"tab_id":    tabID,     // The tab
		"favorited": favorited, // Resulting state
	}).Info("Favorite toggled")
	return favorited, nil
}

// IsFollowing reports whether actorID currently follows targetID. Always a
// straight read of committed state; never cached.
func (e *Engine) IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FollowEdge{}).
		Where("follower_id = ? AND followed_id = ?", actorID, targetID).
		Count(&n).Error
	return n > 0, err
}

// IsFavorited reports whether actorID has favorited tabID
func (e *Engine) IsFavorited(ctx context.Context, actorID, tabID uint) (bool, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FavoriteEdge{}).
		Where("user_id = ? AND tab_id = ?", actorID, tabID).
		Count(&n).Error
	return n > 0, err
}

// ListFollowers returns every user following userID, username ascending.
// No followers is an empty slice, not an error.
func (e *Engine) ListFollowers(ctx context.Context, userID uint) ([]domain.User, error) {
	var users []domain.User
	err := e.db.WithContext(ctx).Model(&domain.User{}).
		Select("users.*").
		Joins("JOIN follow_edges ON follow_edges.follower_id = users.id").
		Where("follow_edges.followed_id = ?", userID).
		Order("users.username asc").
		Find(&users).Error
	return users, err
}

// ListFollowing returns every user that userID follows, username ascending
func (e *Engine) ListFollowing(ctx context.Context, userID uint) ([]domain.User, error) {
	var users []domain.User
	err := e.db.WithContext(ctx).Model(&domain.User{}).
		Select("users.*").
		Joins("JOIN follow_edges ON follow_edges.followed_id = users.id").
		Where("follow_edges.follower_id = ?", userID).
		Order("users.username asc").
		Find(&users).Error
	return users, err
}

// ListFavorites returns every tab userID has favorited, most recently
// favorited first (ordered by the edge's creation time, not the tab's).
func (e *Engine) ListFavorites(ctx context.Context, userID uint) ([]domain.Tab, error) {
	var tabs []domain.Tab
	err := e.db.WithContext(ctx).Model(&domain.Tab{}).
		Select("tabs.*").
		Joins("JOIN favorite_edges ON favorite_edges.tab_id = tabs.id").
		Where("favorite_edges.user_id = ?", userID).
		Order("favorite_edges.created_at desc").
		Find(&tabs).Error
	return tabs, err
}

// CountFollowers counts users following userID. Derived from the edge table
// on every call; a storage failure propagates instead of reading as zero.
func (e *Engine) CountFollowers(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FollowEdge{}).
		Where("followed_id = ?", userID).
		Count(&n).Error
	return n, err
}

// CountFollowing counts users that userID follows
func (e *Engine) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FollowEdge{}).
		Where("follower_id = ?", userID).
		Count(&n).Error
	return n, err
}

// CountTabFavorites counts users who have favorited tabID
func (e *Engine) CountTabFavorites(ctx context.Context, tabID uint) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FavoriteEdge{}).
		Where("tab_id = ?", tabID).
		Count(&n).Error
	return n, err
}

// CountFavorites counts tabs that userID has favorited
func (e *Engine) CountFavorites(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := e.db.WithContext(ctx).Model(&domain.FavoriteEdge{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}
