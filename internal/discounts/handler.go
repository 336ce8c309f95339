package discounts

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/internal/middleware"
	"github.com/heilen-retreats/backend/pkg/response"
)

// CreateBody is the body for POST /admin/discount-codes. Field names match
// the admin console payloads.
type CreateBody struct {
	Code            string    `json:"code" binding:"required"`
	DiscountPercent int       `json:"discountPercent"`
	Description     string    `json:"description"`
	ValidFrom       time.Time `json:"validFrom" binding:"required"`
	ValidUntil      time.Time `json:"validUntil" binding:"required"`
	MaxUses         int       `json:"maxUses" binding:"required"`
	IsActive        bool      `json:"isActive"`
}

// UpdateBody is the body for PUT /admin/discount-codes/:id. All fields are
// optional; absent fields keep their stored value.
type UpdateBody struct {
	Code            *string    `json:"code"`
	DiscountPercent *int       `json:"discountPercent"`
	Description     *string    `json:"description"`
	ValidFrom       *time.Time `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	MaxUses         *int       `json:"maxUses"`
	IsActive        *bool      `json:"isActive"`
}

// ToggleBody is the body for PATCH /admin/discount-codes/:id/toggle.
type ToggleBody struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// Handler handles discount code HTTP endpoints.
type Handler struct {
	ledger *Ledger
}

// NewHandler creates a discounts handler.
func NewHandler(ledger *Ledger) *Handler {
	return &Handler{ledger: ledger}
}

// Create handles POST /admin/discount-codes.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	dc, err := h.ledger.Create(c.Request.Context(), CreateParams{
		Code:            body.Code,
		DiscountPercent: body.DiscountPercent,
		Description:     body.Description,
		ValidFrom:       body.ValidFrom,
		ValidUntil:      body.ValidUntil,
		MaxUses:         body.MaxUses,
		IsActive:        body.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, dc)
}

// List handles GET /admin/discount-codes.
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	list, total, err := h.ledger.List(c.Request.Context(), params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list discount codes")
		return
	}
	response.Page(c, list, total, params)
}

// GetByID handles GET /admin/discount-codes/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	dc, err := h.ledger.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, dc)
}

// Update handles PUT /admin/discount-codes/:id (partial update).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	var body UpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	dc, err := h.ledger.Update(c.Request.Context(), id, UpdateParams{
		Code:            body.Code,
		DiscountPercent: body.DiscountPercent,
		Description:     body.Description,
		ValidFrom:       body.ValidFrom,
		ValidUntil:      body.ValidUntil,
		MaxUses:         body.MaxUses,
		IsActive:        body.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, dc)
}

// Toggle handles PATCH /admin/discount-codes/:id/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	var body ToggleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	dc, err := h.ledger.ToggleActive(c.Request.Context(), id, *body.IsActive, actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, dc)
}

// Delete handles DELETE /admin/discount-codes/:id. Codes with recorded
// uses cannot be deleted; deactivate them instead.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.ledger.Delete(c.Request.Context(), id, actorID); err != nil {
		writeError(c, err)
		return
	}
	response.NoContent(c)
}

// Validity handles GET /admin/discount-codes/:id/validity. asOf defaults
// to now; pass RFC 3339 to evaluate at another instant.
func (h *Handler) Validity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	asOf := time.Now()
	if raw := c.Query("asOf"); raw != "" {
		asOf, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "asOf must be RFC 3339")
			return
		}
	}
	validity, err := h.ledger.EvaluateValidity(c.Request.Context(), id, asOf)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "validity": validity, "valid": validity.Valid()})
}

// RecordUse handles POST /admin/discount-codes/:id/uses, the redemption
// increment consumed by the booking path.
func (h *Handler) RecordUse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid discount code id")
		return
	}
	dc, err := h.ledger.RecordUse(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, dc)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyCode),
		errors.Is(err, ErrInvalidPercent),
		errors.Is(err, ErrInvalidWindow),
		errors.Is(err, ErrInvalidMaxUses):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrDuplicateCode), errors.Is(err, ErrExhausted),
		errors.Is(err, ErrInUse), errors.Is(err, ErrMaxUsesBelowUsed):
		response.Conflict(c, err.Error())
	default:
		response.Internal(c, "discount code operation failed")
	}
}
