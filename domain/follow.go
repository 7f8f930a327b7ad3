package domain

import "time"

// Follow is a directed subscription edge between two users. The UserID is
// the follower, the AuthorID is the user being followed. A (user, author)
// pair exists at most once, and both ends cascade on delete.
type Follow struct {
	ID       int  `json:"id"`
	UserID   int  `json:"-" gorm:"notNull;uniqueIndex:idx_follows_user_author"`
	User     User `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AuthorID int  `json:"-" gorm:"notNull;uniqueIndex:idx_follows_user_author;index"`
	Author   User `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow
// model. Follow and Unfollow are idempotent: repeating either call leaves
// the edge set unchanged and returns no error.
type FollowService interface {
	Follow(userID, authorID int) error
	Unfollow(userID, authorID int) error
	Following(userID, authorID int) bool
}
