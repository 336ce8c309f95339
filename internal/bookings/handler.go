package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/heilen-retreats/backend/internal/discounts"
	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/internal/retreats"
	"github.com/heilen-retreats/backend/pkg/response"
)

// CreateBody is the body for POST /admin/bookings (manual booking, e.g.
// phone orders taken by support).
type CreateBody struct {
	RetreatID      uuid.UUID  `json:"retreatId" binding:"required"`
	UserID         uuid.UUID  `json:"userId" binding:"required"`
	DiscountCodeID *uuid.UUID `json:"discountCodeId"`
}

// Store is the booking persistence contract.
type Store interface {
	Create(ctx context.Context, b *models.Booking) error
	List(ctx context.Context, offset, limit int) ([]models.Booking, int, error)
}

// RetreatSource resolves the retreat being booked.
type RetreatSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Retreat, error)
}

// Handler handles booking endpoints. Booking creation is the redemption
// path for discount codes: it checks validity and consumes a use slot
// through the ledger before pricing the booking.
type Handler struct {
	store    Store
	retreats RetreatSource
	ledger   *discounts.Ledger
	logger   *zap.Logger
}

// NewHandler creates a bookings handler.
func NewHandler(store Store, retreatSource RetreatSource, ledger *discounts.Ledger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, retreats: retreatSource, ledger: ledger, logger: logger}
}

// List handles GET /admin/bookings.
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	list, total, err := h.store.List(c.Request.Context(), params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list bookings")
		return
	}
	response.Page(c, list, total, params)
}

// Create handles POST /admin/bookings.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	ctx := c.Request.Context()

	retreat, err := h.retreats.GetByID(ctx, body.RetreatID)
	if err != nil {
		if errors.Is(err, retreats.ErrNotFound) {
			response.NotFound(c, "retreat not found")
			return
		}
		response.Internal(c, "failed to fetch retreat")
		return
	}
	if retreat.PublishStatus != models.PublishStatusPublished {
		response.Conflict(c, "retreat is not published")
		return
	}

	amount := retreat.PriceCents
	if body.DiscountCodeID != nil {
		validity, err := h.ledger.EvaluateValidity(ctx, *body.DiscountCodeID, time.Now())
		if err != nil {
			if errors.Is(err, discounts.ErrNotFound) {
				response.NotFound(c, "discount code not found")
				return
			}
			response.Internal(c, "failed to evaluate discount code")
			return
		}
		if !validity.Valid() {
			response.Conflict(c, "discount code is "+string(validity))
			return
		}
		dc, err := h.ledger.RecordUse(ctx, *body.DiscountCodeID)
		if err != nil {
			// A concurrent redemption may take the last slot between the
			// evaluation and the increment.
			if errors.Is(err, discounts.ErrExhausted) {
				response.Conflict(c, "discount code exhausted")
				return
			}
			response.Internal(c, "failed to record discount use")
			return
		}
		amount = amount * (100 - dc.DiscountPercent) / 100
	}

	b := &models.Booking{
		RetreatID:      retreat.ID,
		UserID:         body.UserID,
		AmountCents:    amount,
		Currency:       retreat.Currency,
		DiscountCodeID: body.DiscountCodeID,
		Status:         models.BookingStatusConfirmed,
	}
	if err := h.store.Create(c.Request.Context(), b); err != nil {
		h.logger.Error("booking insert failed", zap.Error(err), zap.String("retreat_id", retreat.ID.String()))
		// Give back the consumed use slot so the failed booking does not
		// burn the code's budget.
		if body.DiscountCodeID != nil {
			if _, relErr := h.ledger.ReleaseUse(ctx, *body.DiscountCodeID); relErr != nil {
				h.logger.Error("discount use release failed", zap.Error(relErr),
					zap.String("discount_code_id", body.DiscountCodeID.String()))
			}
		}
		response.Internal(c, "failed to create booking")
		return
	}
	response.Created(c, b)
}
