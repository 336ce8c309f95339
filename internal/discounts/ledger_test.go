package discounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heilen-retreats/backend/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(NewMemStore(), nil, nil)
}

func baseParams() CreateParams {
	now := time.Now()
	return CreateParams{
		Code:            "SAVE10",
		DiscountPercent: 10,
		ValidFrom:       now.Add(-time.Hour),
		ValidUntil:      now.Add(24 * time.Hour),
		MaxUses:         2,
		IsActive:        true,
	}
}

func TestCreateNormalizesCode(t *testing.T) {
	ledger := newTestLedger(t)

	p := baseParams()
	p.Code = "  save10 "
	dc, err := ledger.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", dc.Code)
	assert.Zero(t, dc.UsedCount)
	assert.NotEqual(t, uuid.Nil, dc.ID)
}

func TestCreateDuplicateCaseInsensitive(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Create(ctx, baseParams())
	require.NoError(t, err)

	p := baseParams()
	p.Code = "Save10"
	_, err = ledger.Create(ctx, p)
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestCreateValidation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateParams)
		want   error
	}{
		{"blank code", func(p *CreateParams) { p.Code = "  " }, ErrEmptyCode},
		{"percent over 100", func(p *CreateParams) { p.DiscountPercent = 101 }, ErrInvalidPercent},
		{"negative percent", func(p *CreateParams) { p.DiscountPercent = -1 }, ErrInvalidPercent},
		{"window inverted", func(p *CreateParams) { p.ValidUntil = p.ValidFrom.Add(-time.Minute) }, ErrInvalidWindow},
		{"window empty", func(p *CreateParams) { p.ValidUntil = p.ValidFrom }, ErrInvalidWindow},
		{"zero maxUses", func(p *CreateParams) { p.MaxUses = 0 }, ErrInvalidMaxUses},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			_, err := ledger.Create(ctx, p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdateMergesAndRevalidates(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	dc, err := ledger.Create(ctx, baseParams())
	require.NoError(t, err)

	percent := 25
	desc := "spring promo"
	updated, err := ledger.Update(ctx, dc.ID, UpdateParams{
		DiscountPercent: &percent,
		Description:     &desc,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, updated.DiscountPercent)
	assert.Equal(t, "spring promo", updated.Description)
	assert.Equal(t, "SAVE10", updated.Code, "untouched fields survive")

	bad := 150
	_, err = ledger.Update(ctx, dc.ID, UpdateParams{DiscountPercent: &bad})
	assert.ErrorIs(t, err, ErrInvalidPercent)

	got, err := ledger.Get(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.DiscountPercent, "failed update leaves the code untouched")
}

func TestUpdateMaxUsesNotBelowUsedCount(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p := baseParams()
	p.MaxUses = 3
	dc, err := ledger.Create(ctx, p)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = ledger.RecordUse(ctx, dc.ID)
		require.NoError(t, err)
	}

	one := 1
	_, err = ledger.Update(ctx, dc.ID, UpdateParams{MaxUses: &one})
	assert.ErrorIs(t, err, ErrMaxUsesBelowUsed)

	got, err := ledger.Get(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MaxUses, "failed update leaves the budget untouched")
	assert.Equal(t, 2, got.UsedCount)

	// Shrinking down to the recorded uses is allowed and exhausts the code.
	two := 2
	updated, err := ledger.Update(ctx, dc.ID, UpdateParams{MaxUses: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxUses)
	assert.True(t, updated.Exhausted())
}

func TestReleaseUse(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	dc, err := ledger.Create(ctx, baseParams()) // maxUses 2
	require.NoError(t, err)

	// Releasing an unused code is a no-op.
	got, err := ledger.ReleaseUse(ctx, dc.ID)
	require.NoError(t, err)
	assert.Zero(t, got.UsedCount)

	for i := 0; i < 2; i++ {
		_, err = ledger.RecordUse(ctx, dc.ID)
		require.NoError(t, err)
	}
	_, err = ledger.RecordUse(ctx, dc.ID)
	require.ErrorIs(t, err, ErrExhausted)

	// Releasing frees a slot for the next redemption.
	got, err = ledger.ReleaseUse(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)

	got, err = ledger.RecordUse(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount)

	_, err = ledger.ReleaseUse(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDuplicateCode(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	_, err := ledger.Create(ctx, baseParams())
	require.NoError(t, err)

	p := baseParams()
	p.Code = "WELCOME5"
	other, err := ledger.Create(ctx, p)
	require.NoError(t, err)

	clash := "save10"
	_, err = ledger.Update(ctx, other.ID, UpdateParams{Code: &clash})
	assert.ErrorIs(t, err, ErrDuplicateCode)
}

func TestUpdateUnknown(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.Update(context.Background(), uuid.New(), UpdateParams{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateReasons(t *testing.T) {
	now := time.Now()
	active := func() *models.DiscountCode {
		return &models.DiscountCode{
			IsActive:   true,
			ValidFrom:  now.Add(-time.Hour),
			ValidUntil: now.Add(time.Hour),
			MaxUses:    5,
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.DiscountCode)
		asOf   time.Time
		want   Validity
	}{
		{"valid", func(dc *models.DiscountCode) {}, now, ValidityValid},
		{"inactive", func(dc *models.DiscountCode) { dc.IsActive = false }, now, ValidityInactive},
		{"not yet valid", func(dc *models.DiscountCode) {}, now.Add(-2 * time.Hour), ValidityNotYetValid},
		{"expired at boundary", func(dc *models.DiscountCode) {}, now.Add(time.Hour), ValidityExpired},
		{"exhausted", func(dc *models.DiscountCode) { dc.UsedCount = 5 }, now, ValidityExhausted},
		{"boundary start is valid", func(dc *models.DiscountCode) {}, now.Add(-time.Hour), ValidityValid},
		{"inactive wins over expired", func(dc *models.DiscountCode) { dc.IsActive = false }, now.Add(2 * time.Hour), ValidityInactive},
		{"not yet valid wins over exhausted", func(dc *models.DiscountCode) { dc.UsedCount = 5 }, now.Add(-2 * time.Hour), ValidityNotYetValid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dc := active()
			tt.mutate(dc)
			assert.Equal(t, tt.want, Evaluate(dc, tt.asOf))
		})
	}
}

func TestRecordUseUntilExhausted(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	dc, err := ledger.Create(ctx, baseParams()) // maxUses 2
	require.NoError(t, err)

	first, err := ledger.RecordUse(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.UsedCount)

	second, err := ledger.RecordUse(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, second.UsedCount)

	_, err = ledger.RecordUse(ctx, dc.ID)
	assert.ErrorIs(t, err, ErrExhausted)

	got, err := ledger.Get(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount, "failed use must not move the counter")

	validity, err := ledger.EvaluateValidity(ctx, dc.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, ValidityExhausted, validity)
}

func TestRecordUseConcurrent(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	p := baseParams()
	p.Code = "FLASH"
	p.MaxUses = 5
	dc, err := ledger.Create(ctx, p)
	require.NoError(t, err)

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ledger.RecordUse(ctx, dc.ID)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrExhausted)
		}
	}
	assert.Equal(t, 5, successes)

	got, err := ledger.Get(ctx, dc.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.UsedCount)
}

func TestToggleActive(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	admin := uuid.New()

	dc, err := ledger.Create(ctx, baseParams())
	require.NoError(t, err)

	off, err := ledger.ToggleActive(ctx, dc.ID, false, admin)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	// Setting the same value again succeeds.
	off, err = ledger.ToggleActive(ctx, dc.ID, false, admin)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	validity, err := ledger.EvaluateValidity(ctx, dc.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, ValidityInactive, validity)

	on, err := ledger.ToggleActive(ctx, dc.ID, true, admin)
	require.NoError(t, err)
	assert.True(t, on.IsActive)
}

func TestDeleteUnusedOnly(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	admin := uuid.New()

	dc, err := ledger.Create(ctx, baseParams())
	require.NoError(t, err)

	_, err = ledger.RecordUse(ctx, dc.ID)
	require.NoError(t, err)

	err = ledger.Delete(ctx, dc.ID, admin)
	assert.ErrorIs(t, err, ErrInUse)
	_, err = ledger.Get(ctx, dc.ID)
	assert.NoError(t, err, "failed delete leaves the code in place")

	p := baseParams()
	p.Code = "UNUSED"
	fresh, err := ledger.Create(ctx, p)
	require.NoError(t, err)

	require.NoError(t, ledger.Delete(ctx, fresh.ID, admin))
	_, err = ledger.Get(ctx, fresh.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for _, code := range []string{"FIRST", "SECOND", "THIRD"} {
		p := baseParams()
		p.Code = code
		_, err := ledger.Create(ctx, p)
		require.NoError(t, err)
		time.Sleep(time.Millisecond) // distinct creation timestamps
	}

	list, total, err := ledger.List(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, "THIRD", list[0].Code)
	assert.Equal(t, "SECOND", list[1].Code)
}
