package domain

import "slices" // Role lookup

// Roles known to the site
const (
	RoleUser        = "user"        // Regular subscriber
	RoleAdmin       = "admin"       // Back-office operator
	RoleHandicapper = "handicapper" // Forecast producer
)

// User Model
type User struct {
	ID                   string               `gorm:"primaryKey;size:36" json:"id"`                   // Primary key (uuid)
	Username             string               `gorm:"size:64;uniqueIndex;not null" json:"username"`   // Unique username
	Password             string               `gorm:"not null" json:"-"`                              // Hashed password
	Roles                []string             `gorm:"type:text;serializer:json" json:"roles"`         // Role set
	Wallet               Wallet               `gorm:"embedded" json:"wallet"`                         // Currency balances
	FollowedHandicappers []HandicapperProfile `gorm:"many2many:user_followed_handicappers;" json:"-"` // Followed producers
	CreatedAt            int64                `gorm:"autoCreateTime:milli" json:"created_at"`         // Timestamp of creation in milliseconds
}

// HasRole reports whether the user carries role
func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}
