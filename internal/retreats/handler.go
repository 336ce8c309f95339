package retreats

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/pkg/response"
)

// Handler handles retreat listing and detail endpoints for the console.
type Handler struct {
	repo *Repository
}

// NewHandler creates a retreats handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /admin/services (?businessId= to filter).
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	var businessID *uuid.UUID
	if raw := c.Query("businessId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid business id")
			return
		}
		businessID = &id
	}
	list, total, err := h.repo.List(c.Request.Context(), businessID, params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list services")
		return
	}
	response.Page(c, list, total, params)
}

// GetDetail handles GET /admin/service/:id, returning the retreat with its
// future dates.
func (h *Handler) GetDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	detail, err := h.repo.GetDetail(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "service not found")
			return
		}
		response.Internal(c, "failed to fetch service")
		return
	}
	response.OK(c, detail)
}
