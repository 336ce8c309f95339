package publication

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/heilen-retreats/backend/internal/middleware"
	"github.com/heilen-retreats/backend/pkg/response"
)

// ResolveRequestBody is the body for PUT /admin/publish-requests/:id/approve|reject.
type ResolveRequestBody struct {
	Remark string `json:"remark"`
}

// Handler handles publication HTTP endpoints.
type Handler struct {
	registry *Registry
}

// NewHandler creates a publication handler.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Submit handles POST /services/:id/publish-requests (business submits a
// retreat for review).
func (h *Handler) Submit(c *gin.Context) {
	retreatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	req, err := h.registry.Submit(c.Request.Context(), retreatID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, req)
}

// List handles GET /admin/publish-requests (oldest first; ?pending=true for
// the review queue).
func (h *Handler) List(c *gin.Context) {
	params := response.ParsePageParams(c)
	pendingOnly, _ := strconv.ParseBool(c.DefaultQuery("pending", "false"))
	list, total, err := h.registry.ListRequests(c.Request.Context(), pendingOnly, params.Offset(), params.PageSize)
	if err != nil {
		response.Internal(c, "failed to list publish requests")
		return
	}
	response.Page(c, list, total, params)
}

// Approve handles PUT /admin/publish-requests/:id/approve.
func (h *Handler) Approve(c *gin.Context) {
	h.resolve(c, true)
}

// Reject handles PUT /admin/publish-requests/:id/reject.
func (h *Handler) Reject(c *gin.Context) {
	h.resolve(c, false)
}

func (h *Handler) resolve(c *gin.Context, approve bool) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid request id")
		return
	}
	var body ResolveRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reviewerID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	retreat, err := h.registry.Resolve(c.Request.Context(), requestID, approve, body.Remark, reviewerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, retreat)
}

// SetStatus handles PUT /admin/publishing-response/:id, the direct publish
// override outside the request flow. The console sends publish and remark
// as query parameters.
func (h *Handler) SetStatus(c *gin.Context) {
	retreatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid service id")
		return
	}
	publish, err := strconv.ParseBool(c.Query("publish"))
	if err != nil {
		response.BadRequest(c, "publish must be true or false")
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	retreat, err := h.registry.SetPublishStatus(c.Request.Context(), retreatID, publish, c.Query("remark"), actorID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, retreat)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyRemark):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrRetreatNotFound), errors.Is(err, ErrRequestNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrDuplicateRequest), errors.Is(err, ErrAlreadyResolved):
		response.Conflict(c, err.Error())
	default:
		response.Internal(c, "publication operation failed")
	}
}
