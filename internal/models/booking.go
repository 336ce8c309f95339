package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus for bookings.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking is a customer's booking of a retreat.
type Booking struct {
	ID             uuid.UUID  `json:"id"`
	RetreatID      uuid.UUID  `json:"retreat_id"`
	UserID         uuid.UUID  `json:"user_id"`
	AmountCents    int        `json:"amount_cents"`
	Currency       string     `json:"currency"`
	DiscountCodeID *uuid.UUID `json:"discount_code_id,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
}
