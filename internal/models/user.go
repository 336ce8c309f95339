package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the platform.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
)

// Subscription tiers for subscribed users.
const (
	SubscriptionPlatinum = "platinum"
	SubscriptionSilver   = "silver"
	SubscriptionBronze   = "bronze"
)

// User represents a platform user.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Password         string    `json:"-"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	Subscribed       bool      `json:"subscribed"`
	SubscriptionType string    `json:"subscription_type,omitempty"`
	RetreatOwner     bool      `json:"retreat_owner"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// UserPublic is User without sensitive fields for API responses.
type UserPublic struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	Role             Role      `json:"role"`
	Subscribed       bool      `json:"subscribed"`
	SubscriptionType string    `json:"subscription_type,omitempty"`
	RetreatOwner     bool      `json:"retreat_owner"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic() UserPublic {
	return UserPublic{
		ID:               u.ID,
		Email:            u.Email,
		FullName:         u.FullName,
		Role:             u.Role,
		Subscribed:       u.Subscribed,
		SubscriptionType: u.SubscriptionType,
		RetreatOwner:     u.RetreatOwner,
		CreatedAt:        u.CreatedAt,
	}
}
