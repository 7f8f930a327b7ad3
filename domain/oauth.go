package domain

import "time"

// OAuth links a User to an account at an external provider, so that the
// user can sign in without a password. Only GitHub is wired up right now.
type OAuth struct {
	ID             int    `json:"id"`
	UserID         int    `json:"user_id" gorm:"notNull;index"`
	User           *User  `json:"user,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Provider       string `json:"provider" gorm:"notNull;uniqueIndex:idx_oauths_provider_user"`
	ProviderUserID string `json:"provider_user_id" gorm:"notNull;uniqueIndex:idx_oauths_provider_user"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OAuthService is a set of methods to manipulate and work with the OAuth model.
type OAuthService interface {
	ByProviderUserID(provider, providerUserID string) (*OAuth, error)
	Create(oauth *OAuth) error
}
