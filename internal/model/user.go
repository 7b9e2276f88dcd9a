package model

// User is an account holder. A user created through SSO has an empty
// HashedPassword and can never log in with a password; a user created
// locally may later log in through SSO when the provider asserts the
// same email address.
type User struct {
	Base
	Email          string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	HashedPassword string `gorm:"size:255;not null" json:"-"`
	FullName       string `gorm:"size:255;not null" json:"full_name"`
	AvatarURL      string `gorm:"size:500" json:"avatar_url,omitempty"`
	IsActive       bool   `gorm:"default:true" json:"is_active"`
	IsVerified     bool   `gorm:"default:false" json:"is_verified"`

	// SSOSubjectID is the identity provider's subject for this user.
	// Set once on first SSO login and never overwritten afterwards;
	// email remains the durable identity anchor.
	SSOSubjectID string `gorm:"column:sso_subject_id;size:255;uniqueIndex:ix_users_sso_subject_id,where:sso_subject_id <> ''" json:"-"`
}
