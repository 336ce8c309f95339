package models

import (
	"time"

	"github.com/google/uuid"
)

// ResolutionState is the review state of a publish request.
type ResolutionState string

const (
	ResolutionPending  ResolutionState = "pending"
	ResolutionApproved ResolutionState = "approved"
	ResolutionRejected ResolutionState = "rejected"
)

// PublishRequest is a business's ask to move a retreat into the published
// state. At most one pending request exists per retreat; once resolved a
// request is immutable.
type PublishRequest struct {
	ID               uuid.UUID       `json:"id"`
	RetreatID        uuid.UUID       `json:"retreat_id"`
	RequestedStatus  PublishStatus   `json:"requested_status"`
	SubmittedAt      time.Time       `json:"submitted_at"`
	ResolutionState  ResolutionState `json:"resolution_state"`
	ResolvedBy       *uuid.UUID      `json:"resolved_by,omitempty"`
	ResolutionRemark string          `json:"resolution_remark,omitempty"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
}

// Resolved reports whether the request has been reviewed.
func (p *PublishRequest) Resolved() bool {
	return p.ResolutionState != ResolutionPending
}
