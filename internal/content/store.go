package content

import (
	"context" // Request-scoped cancellation
	"errors"  // Sentinel error matching
	"strings" // Search term escaping

	"tabshare/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

var (
	// ErrNotFound is returned when no tab matches the given id
	ErrNotFound = errors.New("content: tab not found")
	// ErrForbidden is returned when a non-owner edits or deletes an owned tab
	ErrForbidden = errors.New("content: not the tab owner")
	// ErrValidation is returned when title or artist is missing
	ErrValidation = errors.New("content: missing required field")
)

// TabInput carries the writable fields of a tab
type TabInput struct {
	Title    string // Song title, required
	Artist   string // Performing artist, required
	Content  string // Assembled six-string tablature text
	SpeedBPM *int   // Optional speed, defaults to 120 on create
	OwnerID  *uint  // Owning user, nil for anonymous tabs
}

// Store holds Tab records. Ownership policy: a tab with an owner can only be
// edited or deleted by that owner; a tab with no owner is open to anyone who
// has the link. The open anonymous policy is deliberate, not an oversight.
type Store struct {
	db *gorm.DB // Shared database handle
}

// NewStore returns a Store over the given database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateTab stores a new tab. SpeedBPM defaults to 120 when absent.
func (s *Store) CreateTab(ctx context.Context, in TabInput) (*domain.Tab, error) {
	if in.Title == "" || in.Artist == "" {
		return nil, ErrValidation
	}
	speed := in.SpeedBPM
	if speed == nil {
		def := 120
		speed = &def
	}
	tab := domain.Tab{
		Title:      in.Title,
		Artist:     in.Artist,
		Content:    in.Content,
		Difficulty: 3, // Default difficulty
		SpeedBPM:   speed,
		UserID:     in.OwnerID,
	}
	if err := s.db.WithContext(ctx).Create(&tab).Error; err != nil {
		return nil, err
	}
	// Log the creation
	logrus.WithFields(logrus.Fields{
		"tab_id":    tab.ID,            // New tab ID
		"title":     tab.Title,         // Tab title
		"anonymous": tab.UserID == nil, // Whether the author is anonymous
	}).Info("Tab created")
	return &tab, nil
}

// GetTabByID fetches a tab by primary key
func (s *Store) GetTabByID(ctx context.Context, id uint) (*domain.Tab, error) {
	var tab domain.Tab
	if err := s.db.WithContext(ctx).First(&tab, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tab, nil
}

// UpdateTab edits a tab under the ownership policy. actorID is nil for an
// unauthenticated caller; anonymous tabs accept any actor.
func (s *Store) UpdateTab(ctx context.Context, id uint, actorID *uint, in TabInput) (*domain.Tab, error) {
	if in.Title == "" || in.Artist == "" {
		return nil, ErrValidation
	}
	var tab domain.Tab
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&tab, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := checkOwnership(&tab, actorID); err != nil {
			return err
		}
		tab.Title = in.Title
		tab.Artist = in.Artist
		tab.Content = in.Content
		if in.SpeedBPM != nil {
			tab.SpeedBPM = in.SpeedBPM
		}
		return tx.Save(&tab).Error
	})
	if err != nil {
		return nil, err
	}
	return &tab, nil
}

// DeleteTab removes a tab under the ownership policy and cascades: every
// favorite edge referencing the tab goes with it, in the same transaction.
func (s *Store) DeleteTab(ctx context.Context, id uint, actorID *uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tab domain.Tab
		if err := tx.First(&tab, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := checkOwnership(&tab, actorID); err != nil {
			return err
		}
		// Favorite edges referencing the tab go first
		if err := tx.Where("tab_id = ?", id).
			Delete(&domain.FavoriteEdge{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Tab{}, id).Error
	})
	if err != nil {
		return err
	}
	// Log the deletion
	logrus.WithFields(logrus.Fields{
		"tab_id": id, // Deleted tab ID
	}).Info("Tab deleted")
	return nil
}

// checkOwnership applies the edit/delete policy: owned tabs require the
// owner, anonymous tabs are open to anyone with the link.
func checkOwnership(tab *domain.Tab, actorID *uint) error {
	if tab.UserID == nil {
		return nil
	}
	if actorID == nil || *actorID != *tab.UserID {
		return ErrForbidden
	}
	return nil
}

// DeleteTabsByOwner removes every tab authored by userID together with the
// favorite edges referencing those tabs. It runs inside the caller's
// transaction so account deletion stays atomic.
func DeleteTabsByOwner(tx *gorm.DB, userID uint) error {
	// Favorite edges other users put on these tabs go first
	if err := tx.Where("tab_id IN (?)",
		tx.Table("tabs").Select("id").Where("user_id = ?", userID)).
		Delete(&domain.FavoriteEdge{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&domain.Tab{}).Error
}

// ListTabs returns all tabs, most recent first
func (s *Store) ListTabs(ctx context.Context) ([]domain.Tab, error) {
	var tabs []domain.Tab
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&tabs).Error
	return tabs, err
}

// ListRecentTabs returns up to limit tabs, most recent first
func (s *Store) ListRecentTabs(ctx context.Context, limit int) ([]domain.Tab, error) {
	var tabs []domain.Tab
	err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&tabs).Error
	return tabs, err
}

// ListTabsByOwner returns the tabs authored by userID, most recent first
func (s *Store) ListTabsByOwner(ctx context.Context, userID uint) ([]domain.Tab, error) {
	var tabs []domain.Tab
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&tabs).Error
	return tabs, err
}

// SearchTabs finds tabs whose title or artist contains the query,
// case-insensitively, most recent first
func (s *Store) SearchTabs(ctx context.Context, query string) ([]domain.Tab, error) {
	// Escape LIKE wildcards in the user's query so they match literally.
	// The escape character is bound as a parameter; a literal backslash in
	// the SQL text would itself need escaping on MySQL but not on SQLite.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	pattern := "%" + strings.ToLower(escaped) + "%"
	var tabs []domain.Tab
	err := s.db.WithContext(ctx).
		Where(`LOWER(title) LIKE ? ESCAPE ? OR LOWER(artist) LIKE ? ESCAPE ?`, pattern, `\`, pattern, `\`).
		Order("created_at desc").
		Find(&tabs).Error
	return tabs, err
}
