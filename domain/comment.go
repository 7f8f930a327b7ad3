package domain

import "time"

// Comment is a reply to a Post. Comments are listed newest first and are
// deleted together with their post or their author.
type Comment struct {
	ID       int    `json:"id"`
	PostID   int    `json:"post_id" gorm:"notNull;index"`
	Post     *Post  `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	AuthorID int    `json:"author_id" gorm:"notNull;index"`
	Author   User   `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Text     string `json:"text" gorm:"notNull"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	ByPost(postID int) ([]Comment, error)
	Create(comment *Comment) error
	Delete(comment *Comment) error
}
