package users

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/pkg/response"
)

// SubscriptionBody is the body for PUT /admin/users/:id/subscription.
type SubscriptionBody struct {
	Subscribed       bool   `json:"subscribed"`
	SubscriptionType string `json:"subscriptionType"`
}

// Handler handles user listing and subscription endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a users handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /admin/users (?email= substring search).
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	list, total, err := h.repo.List(c.Request.Context(), c.Query("email"), params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list users")
		return
	}
	response.Page(c, list, total, params)
}

// GetByID handles GET /admin/users/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	u, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to fetch user")
		return
	}
	response.OK(c, u)
}

// UpdateSubscription handles PUT /admin/users/:id/subscription.
func (h *Handler) UpdateSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var body SubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	switch body.SubscriptionType {
	case "", models.SubscriptionPlatinum, models.SubscriptionSilver, models.SubscriptionBronze:
	default:
		response.BadRequest(c, "unknown subscription type")
		return
	}
	u, err := h.repo.UpdateSubscription(c.Request.Context(), id, body.Subscribed, body.SubscriptionType)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to update subscription")
		return
	}
	response.OK(c, u)
}
