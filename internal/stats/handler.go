package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/heilen-retreats/backend/pkg/response"
)

const (
	cacheKey = "admin:stats"
	cacheTTL = 60 * time.Second
)

// KPI is the dashboard headline numbers the console renders.
type KPI struct {
	TotalSales        int64 `json:"totalSales"`
	TotalBookings     int   `json:"totalBookings"`
	Users             int   `json:"users"`
	PublishedRetreats int   `json:"publishedRetreats"`
	PendingRequests   int   `json:"pendingRequests"`
}

// Handler serves GET /admin/stats, with a short Redis cache in front of
// the aggregate queries.
type Handler struct {
	pool   *pgxpool.Pool
	rdb    *redis.Client
	logger *zap.Logger
}

// NewHandler creates a stats handler. rdb may be nil to skip caching.
func NewHandler(pool *pgxpool.Pool, rdb *redis.Client, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{pool: pool, rdb: rdb, logger: logger}
}

// Get handles GET /admin/stats.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	if h.rdb != nil {
		if raw, err := h.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var kpi KPI
			if json.Unmarshal([]byte(raw), &kpi) == nil {
				response.OK(c, kpi)
				return
			}
		}
	}

	kpi, err := h.compute(ctx)
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		response.Internal(c, "failed to compute stats")
		return
	}

	if h.rdb != nil {
		if raw, err := json.Marshal(kpi); err == nil {
			if err := h.rdb.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
				h.logger.Warn("stats cache write failed", zap.Error(err))
			}
		}
	}
	response.OK(c, kpi)
}

func (h *Handler) compute(ctx context.Context) (*KPI, error) {
	const q = `SELECT
		(SELECT COALESCE(SUM(amount_cents) FILTER (WHERE status = 'confirmed'), 0) FROM bookings),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM retreats WHERE publish_status = 'published'),
		(SELECT COUNT(*) FROM publish_requests WHERE resolution_state = 'pending')`
	var kpi KPI
	err := h.pool.QueryRow(ctx, q).Scan(&kpi.TotalSales, &kpi.TotalBookings, &kpi.Users, &kpi.PublishedRetreats, &kpi.PendingRequests)
	if err != nil {
		return nil, err
	}
	return &kpi, nil
}
