package domain

import "time"

// PostsPerPage is the page size of every timeline listing.
const PostsPerPage = 10

// Post is a piece of content written by a User, optionally filed under a
// Group and optionally carrying image attachments. All listings order posts
// newest first, by CreatedAt with the ID as tie breaker. CreatedAt is set
// once on insert and never modified by edits.
type Post struct {
	ID       int    `json:"id"`
	Text     string `json:"text" gorm:"notNull"`
	AuthorID int    `json:"author_id" gorm:"notNull;index"`
	Author   User   `json:"author" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	GroupID  *int   `json:"group_id,omitempty" gorm:"index"`
	Group    *Group `json:"group,omitempty" gorm:"constraint:OnDelete:SET NULL"`

	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE"`
	Images   []Image   `json:"images,omitempty" gorm:"-"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostService is a set of methods to manipulate and work with the Post model.
// The listing methods return one page of PostsPerPage posts. Pages are
// 1-based; a page past the end yields an empty slice, not an error.
type PostService interface {
	ByID(id int) (*Post, error)
	All(page int) ([]Post, error)
	ByGroup(groupID, page int) ([]Post, error)
	ByAuthor(authorID, page int) ([]Post, error)
	ByFollowed(userID, page int) ([]Post, error)
	Create(post *Post) error
	Update(post *Post) error
	Delete(post *Post) error
}
