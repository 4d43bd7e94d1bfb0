package domain

import "time"

// Tab Model
type Tab struct {
	ID         uint      `gorm:"primaryKey" json:"id"`               // Primary key
	Title      string    `gorm:"size:200;not null" json:"title"`     // Song title
	Artist     string    `gorm:"size:200;not null" json:"artist"`    // Performing artist
	Content    string    `gorm:"type:text;not null" json:"content"`  // Six string lines of tablature
	Difficulty int       `gorm:"not null;default:3" json:"difficulty"` // Difficulty: 1 (very easy) .. 5 (very hard)
	SpeedBPM   *int      `gorm:"default:120" json:"speed_bpm"`       // Song speed in beats per minute, optional
	UserID     *uint     `json:"user_id"`                            // Owning user, nil for anonymous tabs
	CreatedAt  time.Time `json:"created_at"`                         // Timestamp of creation
	UpdatedAt  time.Time `json:"updated_at"`                         // Timestamp of last edit
}
