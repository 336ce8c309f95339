package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountCode is a time- and usage-bounded promotional code reducing the
// booking price by a percentage. Codes are unique case-insensitively.
type DiscountCode struct {
	ID              uuid.UUID `json:"id"`
	Code            string    `json:"code"`
	DiscountPercent int       `json:"discount_percent"`
	Description     string    `json:"description,omitempty"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidUntil      time.Time `json:"valid_until"`
	MaxUses         int       `json:"max_uses"`
	UsedCount       int       `json:"used_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Exhausted reports whether the usage budget is spent.
func (d *DiscountCode) Exhausted() bool {
	return d.UsedCount >= d.MaxUses
}
