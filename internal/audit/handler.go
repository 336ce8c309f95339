package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/heilen-retreats/backend/pkg/response"
)

// Handler serves the audit trail to the console.
type Handler struct {
	repo *Repository
}

// NewHandler creates an audit handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /admin/audit-events.
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	list, total, err := h.repo.List(c.Request.Context(), params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list audit events")
		return
	}
	response.Page(c, list, total, params)
}
