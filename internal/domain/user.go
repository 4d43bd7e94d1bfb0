package domain

import "time"

// User Model
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`                     // Primary key
	Username     string    `gorm:"size:80;unique;not null" json:"username"`  // Unique username
	Email        string    `gorm:"size:200;unique;not null" json:"email"`    // Unique email
	PasswordHash string    `gorm:"size:200;not null" json:"-"`               // Hashed credential, never serialized
	AvatarKey    string    `gorm:"size:200" json:"avatar_key,omitempty"`     // Object key of the avatar image, empty when none
	CreatedAt    time.Time `json:"created_at"`                               // Timestamp of registration
}
