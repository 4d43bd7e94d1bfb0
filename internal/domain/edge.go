package domain

import "time"

// FollowEdge records that one user follows another. Directed: (A, B) does not
// imply (B, A). The composite primary key makes a duplicate follow a
// constraint violation, and the check constraint rejects self-follows at the
// storage layer.
type FollowEdge struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false;check:chk_no_self_follow,follower_id <> followed_id" json:"follower_id"` // The user doing the following
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false" json:"followed_id"`                                                     // The user being followed
	CreatedAt  time.Time `json:"created_at"`                                                                                            // When the follow happened

	// Foreign keys so a deleted user can never leave a dangling edge
	Follower *User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followed *User `gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName fixes the join table name
func (FollowEdge) TableName() string { return "follow_edges" }

// FavoriteEdge records that a user has bookmarked a tab. The composite
// primary key makes a duplicate favorite a constraint violation.
type FavoriteEdge struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"` // The user who favorited
	TabID     uint      `gorm:"primaryKey;autoIncrement:false" json:"tab_id"`  // The favorited tab
	CreatedAt time.Time `json:"created_at"`                                    // When the favorite happened

	// Foreign keys so a deleted user or tab can never leave a dangling edge
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tab  *Tab  `gorm:"foreignKey:TabID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName fixes the join table name
func (FavoriteEdge) TableName() string { return "favorite_edges" }
