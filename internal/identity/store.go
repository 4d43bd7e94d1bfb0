package identity

import (
	"context" // Request-scoped cancellation
	"errors"  // Sentinel error matching

	"tabshare/internal/content" // Tab cascade on account deletion
	"tabshare/internal/domain"  // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

var (
	// ErrNotFound is returned when no user matches the given id
	ErrNotFound = errors.New("identity: user not found")
	// ErrDuplicate is returned when a username or email is already taken
	ErrDuplicate = errors.New("identity: username or email already taken")
	// ErrBadCredentials is returned when the identifier/password pair does not verify
	ErrBadCredentials = errors.New("identity: invalid credentials")
	// ErrValidation is returned when a required field is missing
	ErrValidation = errors.New("identity: missing required field")
)

// Store holds User records and performs credential verification
type Store struct {
	db *gorm.DB // Shared database handle
}

// NewStore returns a Store over the given database handle
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateUser registers a new user with a bcrypt-hashed credential
func (s *Store) CreateUser(ctx context.Context, username, email, password string) (*domain.User, error) {
	// All three fields are required
	if username == "" || email == "" || password == "" {
		return nil, ErrValidation
	}
	// Hash the password
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := domain.User{Username: username, Email: email, PasswordHash: string(hash)}
	// The unique constraints on username and email reject duplicates
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	// Log the registration
	logrus.WithFields(logrus.Fields{
		"user_id":  user.ID,       // New user ID
		"username": user.Username, // New username
	}).Info("User registered")
	return &user, nil
}

// GetUserByID fetches a user by primary key
func (s *Store) GetUserByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// VerifyCredential checks an identifier (username or email) and password
// pair and returns the matching user. A missing user and a wrong password
// both report ErrBadCredentials so the response does not leak which part
// was wrong.
func (s *Store) VerifyCredential(ctx context.Context, identifier, password string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	// Compare provided password with stored hash
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return &user, nil
}

// UpdateProfile changes username/email and optionally the password. An empty
// newPassword keeps the current credential.
func (s *Store) UpdateProfile(ctx context.Context, id uint, username, email, newPassword string) error {
	// Username and email cannot be emptied
	if username == "" || email == "" {
		return ErrValidation
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// Check the username/email against every other user
		var n int64
		if err := tx.Model(&domain.User{}).
			Where("id <> ?", id).
			Where("username = ? OR email = ?", username, email).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		user.Username = username
		user.Email = email
		if newPassword != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
		}
		return tx.Save(&user).Error
	})
}

// SetAvatar records the object key of a freshly uploaded avatar and returns
// the previous key so the caller can delete the old object.
func (s *Store) SetAvatar(ctx context.Context, id uint, key string) (string, error) {
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		previous = user.AvatarKey
		return tx.Model(&user).Update("avatar_key", key).Error
	})
	return previous, err
}

// DeleteUser removes a user and everything hanging off them: follow edges in
// both directions, the user's own favorite edges, favorite edges pointing at
// the user's tabs, the tabs themselves, then the user row. One transaction:
// any failure leaves the account and its tabs fully intact.
func (s *Store) DeleteUser(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		// Follow edges where the user is follower or followed
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).
			Delete(&domain.FollowEdge{}).Error; err != nil {
			return err
		}
		// Favorite edges owned by the user
		if err := tx.Where("user_id = ?", id).
			Delete(&domain.FavoriteEdge{}).Error; err != nil {
			return err
		}
		// The user's tabs are deleted outright, not orphaned, along with the
		// favorite edges other users put on them
		if err := content.DeleteTabsByOwner(tx, id); err != nil {
			return err
		}
		return tx.Delete(&domain.User{}, id).Error
	})
	if err != nil {
		// Log the failure with context; the transaction has rolled back
		logrus.WithFields(logrus.Fields{
			"user_id": id,          // User being deleted
			"error":   err.Error(), // Error message
		}).Error("Account deletion failed")
		return err
	}
	// Log the deletion
	logrus.WithFields(logrus.Fields{
		"user_id": id, // Deleted user ID
	}).Info("Account deleted")
	return nil
}
