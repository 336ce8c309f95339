package discounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heilen-retreats/backend/internal/middleware"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ledger := NewLedger(NewMemStore(), nil, nil)
	h := NewHandler(ledger)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, uuid.New())
	})
	admin := r.Group("/admin/discount-codes")
	{
		admin.POST("", h.Create)
		admin.GET("", h.List)
		admin.GET("/:id", h.GetByID)
		admin.PUT("/:id", h.Update)
		admin.PATCH("/:id/toggle", h.Toggle)
		admin.DELETE("/:id", h.Delete)
		admin.GET("/:id/validity", h.Validity)
		admin.POST("/:id/uses", h.RecordUse)
	}
	return r, ledger
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createBody() gin.H {
	now := time.Now().UTC()
	return gin.H{
		"code":            "SAVE10",
		"discountPercent": 10,
		"validFrom":       now.Add(-time.Hour).Format(time.RFC3339),
		"validUntil":      now.Add(24 * time.Hour).Format(time.RFC3339),
		"maxUses":         2,
		"isActive":        true,
	}
}

func TestHandlerCreate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/admin/discount-codes", createBody())
	assert.Equal(t, http.StatusCreated, w.Code)

	// Same code again, different casing.
	body := createBody()
	body["code"] = "save10"
	w = doJSON(t, r, http.MethodPost, "/admin/discount-codes", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	body = createBody()
	body["code"] = "TOOHIGH"
	body["discountPercent"] = 150
	w = doJSON(t, r, http.MethodPost, "/admin/discount-codes", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerGetUnknown(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/admin/discount-codes/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/discount-codes/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerToggleAndDelete(t *testing.T) {
	r, ledger := newTestRouter(t)
	ctx := context.Background()

	now := time.Now()
	dc, err := ledger.Create(ctx, CreateParams{
		Code: "SPRING", DiscountPercent: 15,
		ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour),
		MaxUses: 3, IsActive: true,
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPatch, fmt.Sprintf("/admin/discount-codes/%s/toggle", dc.ID), gin.H{"isActive": false})
	assert.Equal(t, http.StatusOK, w.Code)

	// Redeemed codes cannot be deleted.
	_, err = ledger.RecordUse(ctx, dc.ID)
	require.NoError(t, err)
	w = doJSON(t, r, http.MethodDelete, "/admin/discount-codes/"+dc.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandlerValidity(t *testing.T) {
	r, ledger := newTestRouter(t)

	now := time.Now().UTC()
	dc, err := ledger.Create(context.Background(), CreateParams{
		Code: "WINDOW", DiscountPercent: 5,
		ValidFrom: now.Add(time.Hour), ValidUntil: now.Add(2 * time.Hour),
		MaxUses: 1, IsActive: true,
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/admin/discount-codes/"+dc.ID.String()+"/validity", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Validity string `json:"validity"`
			Valid    bool   `json:"valid"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(ValidityNotYetValid), resp.Data.Validity)
	assert.False(t, resp.Data.Valid)

	asOf := now.Add(90 * time.Minute).Format(time.RFC3339)
	w = doJSON(t, r, http.MethodGet, "/admin/discount-codes/"+dc.ID.String()+"/validity?asOf="+asOf, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Valid)

	w = doJSON(t, r, http.MethodGet, "/admin/discount-codes/"+dc.ID.String()+"/validity?asOf=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlerRecordUseExhausted(t *testing.T) {
	r, ledger := newTestRouter(t)

	now := time.Now()
	dc, err := ledger.Create(context.Background(), CreateParams{
		Code: "ONCE", DiscountPercent: 20,
		ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour),
		MaxUses: 1, IsActive: true,
	})
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/discount-codes/%s/uses", dc.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, fmt.Sprintf("/admin/discount-codes/%s/uses", dc.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
