package businesses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/pkg/response"
)

// Handler handles business endpoints for the console.
type Handler struct {
	repo *Repository
}

// NewHandler creates a businesses handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /admin/businesses.
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	list, total, err := h.repo.List(c.Request.Context(), params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list businesses")
		return
	}
	response.Page(c, list, total, params)
}

// GetByID handles GET /admin/businesses/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid business id")
		return
	}
	b, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "business not found")
			return
		}
		response.Internal(c, "failed to fetch business")
		return
	}
	response.OK(c, b)
}
