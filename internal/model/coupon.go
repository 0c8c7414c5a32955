package model

import (
	"math"
	"strings"
	"time"
)

// DiscountType distinguishes percentage discounts from fixed-amount ones.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// PurchaseType is the kind of item a purchase is for.
type PurchaseType string

const (
	PurchaseCourse  PurchaseType = "course"
	PurchaseService PurchaseType = "service"
)

// ApplicabilityScope selects which case of the Applicability variant applies.
type ApplicabilityScope string

const (
	ScopeAll      ApplicabilityScope = "all"
	ScopeCategory ApplicabilityScope = "category"
	ScopeItems    ApplicabilityScope = "items"
)

// Applicability is a tagged variant with three cases: every purchase,
// a single purchase category, or an explicit list of item IDs.
// Category is only meaningful when Scope is ScopeCategory, ItemIDs only
// when Scope is ScopeItems.
type Applicability struct {
	Scope    ApplicabilityScope `json:"scope"`
	Category PurchaseType       `json:"category,omitempty"`
	ItemIDs  []string           `json:"item_ids,omitempty"`
}

// Covers reports whether a purchase of the given type and item falls under
// this applicability. Unknown scopes fail closed.
func (a Applicability) Covers(purchaseType PurchaseType, itemID string) bool {
	switch a.Scope {
	case ScopeAll:
		return true
	case ScopeCategory:
		return a.Category == purchaseType
	case ScopeItems:
		for _, id := range a.ItemIDs {
			if id == itemID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Valid reports whether the variant is well-formed.
func (a Applicability) Valid() bool {
	switch a.Scope {
	case ScopeAll:
		return true
	case ScopeCategory:
		return a.Category == PurchaseCourse || a.Category == PurchaseService
	case ScopeItems:
		return len(a.ItemIDs) > 0
	default:
		return false
	}
}

// Coupon represents a promotional code with its discount rules and usage
// constraints. The code is stored uppercased and is globally unique.
type Coupon struct {
	ID                string        `json:"id"`
	Code              string        `json:"code"`
	DiscountType      DiscountType  `json:"discount_type"`
	DiscountValue     float64       `json:"discount_value"`
	MinPurchaseAmount *float64      `json:"min_purchase_amount,omitempty"`
	MaxDiscountAmount *float64      `json:"max_discount_amount,omitempty"`
	ValidFrom         time.Time     `json:"valid_from"`
	ValidUntil        time.Time     `json:"valid_until"`
	UsageLimit        *int          `json:"usage_limit,omitempty"`
	UsageCount        int           `json:"usage_count"`
	UserLimit         *int          `json:"user_limit,omitempty"`
	AppliesTo         Applicability `json:"applies_to"`
	IsActive          bool          `json:"is_active"`
	Description       string        `json:"description,omitempty"`
	CreatedBy         string        `json:"created_by,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// DiscountFor computes the discount and the final amount for a purchase of
// the given amount. The discount never exceeds the amount and the final
// amount never goes below zero; both are rounded to cents.
func (c *Coupon) DiscountFor(amount float64) (discount, finalAmount float64) {
	var raw float64
	switch c.DiscountType {
	case DiscountPercentage:
		raw = amount * c.DiscountValue / 100
		if c.MaxDiscountAmount != nil && raw > *c.MaxDiscountAmount {
			raw = *c.MaxDiscountAmount
		}
	case DiscountFixed:
		raw = c.DiscountValue
	}
	if raw > amount {
		raw = amount
	}
	if raw < 0 {
		raw = 0
	}
	discount = RoundCents(raw)
	finalAmount = RoundCents(amount - discount)
	if finalAmount < 0 {
		finalAmount = 0
	}
	return discount, finalAmount
}

// RoundCents rounds to two decimal places, half away from zero.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// NormalizeCode uppercases and trims a coupon code for lookup and storage.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCouponRequest is the DTO for POST /api/coupons/validate.
// Amount is a pointer so a missing amount is distinguishable from zero.
type ValidateCouponRequest struct {
	Code         string   `json:"code" validate:"required,notblank,max=64"`
	PurchaseType string   `json:"purchase_type" validate:"required,oneof=course service"`
	ItemID       string   `json:"item_id" validate:"required,notblank,max=255"`
	Amount       *float64 `json:"amount" validate:"required,gte=0"`
	UserID       string   `json:"user_id" validate:"omitempty,max=255"`
}

// ValidateCouponResponse is the engine's verdict. A failed gate is a normal
// response with Valid=false, not an error.
type ValidateCouponResponse struct {
	Valid       bool    `json:"valid"`
	Discount    float64 `json:"discount"`
	FinalAmount float64 `json:"final_amount"`
	CouponCode  string  `json:"coupon_code,omitempty"`
	Message     string  `json:"message"`
}

// CreateCouponRequest is the DTO for creating a coupon.
type CreateCouponRequest struct {
	Code              string        `json:"code" validate:"required,notblank,min=3,max=64"`
	DiscountType      DiscountType  `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     *float64      `json:"discount_value" validate:"required,gte=0"`
	MinPurchaseAmount *float64      `json:"min_purchase_amount" validate:"omitempty,gte=0"`
	MaxDiscountAmount *float64      `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ValidFrom         time.Time     `json:"valid_from" validate:"required"`
	ValidUntil        time.Time     `json:"valid_until" validate:"required"`
	UsageLimit        *int          `json:"usage_limit" validate:"omitempty,gte=1"`
	UserLimit         *int          `json:"user_limit" validate:"omitempty,gte=1"`
	AppliesTo         Applicability `json:"applies_to"`
	Description       string        `json:"description" validate:"max=500"`
	CreatedBy         string        `json:"created_by" validate:"omitempty,max=255"`
}

// UpdateCouponRequest is the DTO for partially updating a coupon. Nil fields
// are left unchanged.
type UpdateCouponRequest struct {
	DiscountType      *DiscountType  `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue     *float64       `json:"discount_value" validate:"omitempty,gte=0"`
	MinPurchaseAmount *float64       `json:"min_purchase_amount" validate:"omitempty,gte=0"`
	MaxDiscountAmount *float64       `json:"max_discount_amount" validate:"omitempty,gte=0"`
	ValidFrom         *time.Time     `json:"valid_from"`
	ValidUntil        *time.Time     `json:"valid_until"`
	UsageLimit        *int           `json:"usage_limit" validate:"omitempty,gte=1"`
	UserLimit         *int           `json:"user_limit" validate:"omitempty,gte=1"`
	AppliesTo         *Applicability `json:"applies_to"`
	IsActive          *bool          `json:"is_active"`
	Description       *string        `json:"description" validate:"omitempty,max=500"`
}

// ListCouponsResponse is the paged response for GET /api/coupons.
type ListCouponsResponse struct {
	Coupons []Coupon `json:"coupons"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
	Total   int64    `json:"total"`
}
