package domain

import "time"

// SlugMaxLength is the maximum length of a group's slug. A derived slug
// longer than this is truncated, never rejected.
const SlugMaxLength = 60

// Group is a named content category. Its Slug is the unique token used in
// group page URLs. If no slug is supplied when the group is created, one is
// derived from the title. Deleting a group does not delete its posts, they
// just lose their group.
type Group struct {
	ID          int    `json:"id"`
	Title       string `json:"title" gorm:"notNull;size:200"`
	Slug        string `json:"slug" gorm:"uniqueIndex;size:60"`
	Description string `json:"description"`

	Posts []Post `json:"posts,omitempty" gorm:"constraint:OnDelete:SET NULL"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupService is a set of methods to manipulate and work with the Group model.
type GroupService interface {
	ByID(id int) (*Group, error)
	BySlug(slug string) (*Group, error)
	All() ([]Group, error)
	Create(group *Group) error
	Update(group *Group) error
	Delete(group *Group) error
}
