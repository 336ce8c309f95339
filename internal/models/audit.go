package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded for administrative decisions.
const (
	AuditActionRequestApproved = "publish_request_approved"
	AuditActionRequestRejected = "publish_request_rejected"
	AuditActionStatusOverride  = "publish_status_override"
	AuditActionCodeToggled     = "discount_code_toggled"
	AuditActionCodeDeleted     = "discount_code_deleted"
)

// AuditEvent is one administrative decision with its mandatory remark.
type AuditEvent struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	EntityKind string    `json:"entity_kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	Remark     string    `json:"remark,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
