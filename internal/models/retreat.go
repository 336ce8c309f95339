package models

import (
	"time"

	"github.com/google/uuid"
)

// PublishStatus is the publication state of a retreat.
type PublishStatus string

const (
	PublishStatusUnpublished   PublishStatus = "unpublished"
	PublishStatusPendingReview PublishStatus = "pending_review"
	PublishStatusPublished     PublishStatus = "published"
)

// Retreat is a bookable offering created by a business, subject to admin
// publication approval. Retreats are never hard-deleted by the admin core.
type Retreat struct {
	ID            uuid.UUID     `json:"id"`
	BusinessID    uuid.UUID     `json:"business_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	PriceCents    int           `json:"price_cents"`
	Currency      string        `json:"currency"`
	PublishStatus PublishStatus `json:"publish_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// RetreatFutureDate is an upcoming run of a retreat with its slot capacity.
type RetreatFutureDate struct {
	ID          uuid.UUID `json:"id"`
	RetreatID   uuid.UUID `json:"retreat_id"`
	StartsOn    time.Time `json:"starts_on"`
	EndsOn      time.Time `json:"ends_on"`
	Slots       int       `json:"slots"`
	IsLimitless bool      `json:"is_limitless"`
	CreatedAt   time.Time `json:"created_at"`
}

// RetreatDetail is a retreat with its future dates for the detail view.
type RetreatDetail struct {
	Retreat
	FutureDates []RetreatFutureDate `json:"future_dates"`
}
