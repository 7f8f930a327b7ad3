package domain

import "time"

// User represents a registered account, able to author posts and comments
// and to follow other users. Password and Remember only ever hold transient
// cleartext values; the database stores their hashed counterparts.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username" gorm:"notNull;uniqueIndex;size:150"`
	Email    string `json:"email" gorm:"notNull;uniqueIndex"`

	Password     string `json:"-" gorm:"-"`
	PasswordHash string `json:"-"`
	Remember     string `json:"-" gorm:"-"`
	RememberHash string `json:"-" gorm:"uniqueIndex"`

	Posts []Post `json:"posts,omitempty" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is a set of methods to manipulate and work with the User model.
type UserService interface {
	ByID(id int) (*User, error)
	ByUsername(username string) (*User, error)
	ByEmail(email string) (*User, error)
	ByRemember(token string) (*User, error)
	Authenticate(email, password string) (*User, error)
	MakeRememberToken() (string, error)
	Create(user *User) error
	Update(user *User) error
	Delete(user *User) error
}
