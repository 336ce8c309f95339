package bookings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heilen-retreats/backend/internal/discounts"
	"github.com/heilen-retreats/backend/internal/models"
	"github.com/heilen-retreats/backend/internal/retreats"
)

type fakeStore struct {
	failCreates int
	bookings    []models.Booking
}

func (s *fakeStore) Create(ctx context.Context, b *models.Booking) error {
	if s.failCreates > 0 {
		s.failCreates--
		return errors.New("insert failed")
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	s.bookings = append(s.bookings, *b)
	return nil
}

func (s *fakeStore) List(ctx context.Context, offset, limit int) ([]models.Booking, int, error) {
	return s.bookings, len(s.bookings), nil
}

type fakeRetreats struct {
	retreat *models.Retreat
}

func (f *fakeRetreats) GetByID(ctx context.Context, id uuid.UUID) (*models.Retreat, error) {
	if f.retreat != nil && f.retreat.ID == id {
		cp := *f.retreat
		return &cp, nil
	}
	return nil, retreats.ErrNotFound
}

func newTestHandler(t *testing.T, store *fakeStore, retreat *models.Retreat) (*gin.Engine, *discounts.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ledger := discounts.NewLedger(discounts.NewMemStore(), nil, nil)
	h := NewHandler(store, &fakeRetreats{retreat: retreat}, ledger, nil)

	r := gin.New()
	r.POST("/admin/bookings", h.Create)
	r.GET("/admin/bookings", h.List)
	return r, ledger
}

func publishedRetreat() *models.Retreat {
	return &models.Retreat{
		ID:            uuid.New(),
		BusinessID:    uuid.New(),
		Name:          "Alpine Silence Week",
		PriceCents:    10000,
		Currency:      "EUR",
		PublishStatus: models.PublishStatusPublished,
	}
}

func seedCode(t *testing.T, ledger *discounts.Ledger, maxUses int) *models.DiscountCode {
	t.Helper()
	now := time.Now()
	dc, err := ledger.Create(context.Background(), discounts.CreateParams{
		Code: "SAVE10", DiscountPercent: 10,
		ValidFrom: now.Add(-time.Hour), ValidUntil: now.Add(time.Hour),
		MaxUses: maxUses, IsActive: true,
	})
	require.NoError(t, err)
	return dc
}

func postBooking(t *testing.T, r *gin.Engine, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/admin/bookings", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAppliesDiscount(t *testing.T) {
	retreat := publishedRetreat()
	store := &fakeStore{}
	r, ledger := newTestHandler(t, store, retreat)
	dc := seedCode(t, ledger, 2)

	w := postBooking(t, r, gin.H{
		"retreatId":      retreat.ID,
		"userId":         uuid.New(),
		"discountCodeId": dc.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, store.bookings, 1)
	assert.Equal(t, 9000, store.bookings[0].AmountCents)

	got, err := ledger.Get(context.Background(), dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestCreateReleasesUseWhenInsertFails(t *testing.T) {
	retreat := publishedRetreat()
	store := &fakeStore{failCreates: 1}
	r, ledger := newTestHandler(t, store, retreat)
	dc := seedCode(t, ledger, 1)

	body := gin.H{
		"retreatId":      retreat.ID,
		"userId":         uuid.New(),
		"discountCodeId": dc.ID,
	}
	w := postBooking(t, r, body)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	// The failed booking must not burn the code's only use slot.
	got, err := ledger.Get(context.Background(), dc.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UsedCount)

	// A retry can still redeem the code.
	w = postBooking(t, r, body)
	require.Equal(t, http.StatusCreated, w.Code)
	got, err = ledger.Get(context.Background(), dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestCreateRejectsUnpublishedRetreat(t *testing.T) {
	retreat := publishedRetreat()
	retreat.PublishStatus = models.PublishStatusUnpublished
	r, _ := newTestHandler(t, &fakeStore{}, retreat)

	w := postBooking(t, r, gin.H{"retreatId": retreat.ID, "userId": uuid.New()})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRejectsInvalidCode(t *testing.T) {
	retreat := publishedRetreat()
	store := &fakeStore{}
	r, ledger := newTestHandler(t, store, retreat)
	dc := seedCode(t, ledger, 1)
	_, err := ledger.ToggleActive(context.Background(), dc.ID, false, uuid.New())
	require.NoError(t, err)

	w := postBooking(t, r, gin.H{
		"retreatId":      retreat.ID,
		"userId":         uuid.New(),
		"discountCodeId": dc.ID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	got, err := ledger.Get(context.Background(), dc.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UsedCount, "an invalid code must not consume a slot")
	assert.Empty(t, store.bookings)
}
