//go:build integration

// Package integration contains end-to-end API flow tests that verify
// the complete journey from coupon creation through validation to
// redemption recording.
package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEndToEndRedemptionFlow walks the full lifecycle:
// admin creates a limited coupon, a customer previews it at checkout,
// the purchase completes and records a redemption, and once the quota
// is consumed further validations are rejected.
func TestEndToEndRedemptionFlow(t *testing.T) {
	cleanupTables(t)

	const usageLimit = 3

	// Admin creates the coupon through the API
	resp, err := postJSON(formatURL("/api/coupons"), map[string]interface{}{
		"code":           "launch20",
		"discount_type":  "percentage",
		"discount_value": 20,
		"usage_limit":    usageLimit,
		"valid_from":     time.Now().Add(-time.Hour).Format(time.RFC3339),
		"valid_until":    time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID   string `json:"id"`
		Code string `json:"code"`
	}
	require.NoError(t, readJSONResponse(resp, &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "LAUNCH20", created.Code)

	checkoutReq := map[string]interface{}{
		"code":          "LAUNCH20",
		"purchase_type": "course",
		"item_id":       "course-42",
		"amount":        150,
	}

	// Consume the whole quota, one checkout at a time
	for i := 0; i < usageLimit; i++ {
		status, result := validateCoupon(t, checkoutReq)
		require.Equal(t, http.StatusOK, status)
		require.True(t, result.Valid, "validation %d should pass, quota not yet consumed", i+1)
		assert.Equal(t, 30.0, result.Discount)
		assert.Equal(t, 120.0, result.FinalAmount)

		// Purchase completes, backend records the redemption
		resp, err := postJSON(formatURL(fmt.Sprintf("/api/coupons/%s/redemptions", created.ID)), nil)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		assert.Equal(t, i+1, getUsageCount(t, "LAUNCH20"))
	}

	// Quota exhausted
	status, result := validateCoupon(t, checkoutReq)
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, result.Valid)
	assert.Equal(t, "Coupon usage limit reached", result.Message)

	// The counter keeps an accurate audit trail even past the limit:
	// a purchase already in flight when the quota ran out still records.
	resp, err = postJSON(formatURL(fmt.Sprintf("/api/coupons/%s/redemptions", created.ID)), nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, usageLimit+1, getUsageCount(t, "LAUNCH20"))
}

func TestRecordRedemption_UnknownCoupon(t *testing.T) {
	cleanupTables(t)

	resp, err := postJSON(formatURL("/api/coupons/00000000-0000-0000-0000-000000000000/redemptions"), nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestValidationDoesNotConsumeQuota confirms the preview endpoint is
// read-only: a customer can re-validate at every cart refresh without
// burning the coupon's quota.
func TestValidationDoesNotConsumeQuota(t *testing.T) {
	cleanupTables(t)

	limit := 1
	row := defaultCouponRow("PREVIEW", 15)
	row.usageLimit = &limit
	seedCoupon(t, row)

	req := map[string]interface{}{
		"code":          "PREVIEW",
		"purchase_type": "service",
		"item_id":       "svc-9",
		"amount":        60,
	}

	for i := 0; i < 10; i++ {
		_, result := validateCoupon(t, req)
		require.True(t, result.Valid, "repeated previews must keep passing")
	}

	assert.Zero(t, getUsageCount(t, "PREVIEW"), "validation must never touch usage_count")
}
