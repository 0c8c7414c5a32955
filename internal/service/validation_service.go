package service

import (
	"context"
	"fmt"
	"time"

	"github.com/learnmart/coupon-service/internal/model"
)

// CouponReader is the read interface the validation engine needs from the
// coupon store. FindActiveByCode returns nil, nil when no active coupon
// carries the code.
type CouponReader interface {
	FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// PurchaseCounter counts completed purchases on which a user redeemed a
// given coupon code.
type PurchaseCounter interface {
	CountCompletedByUserAndCoupon(ctx context.Context, userID, code string) (int, error)
}

// ValidationService decides whether a coupon applies to a purchase and
// computes the discount. It is read-only: validating never consumes quota,
// so callers may use it for price previews any number of times. Quota is
// consumed later by CouponService.RecordRedemption when the purchase
// completes, which leaves a check-then-update window in which two
// concurrent validations can both pass against the same remaining quota.
type ValidationService struct {
	coupons   CouponReader
	purchases PurchaseCounter
	now       func() time.Time
}

// NewValidationService creates a ValidationService backed by the given stores.
func NewValidationService(coupons CouponReader, purchases PurchaseCounter) *ValidationService {
	return &ValidationService{coupons: coupons, purchases: purchases, now: time.Now}
}

// NewValidationServiceWithClock creates a ValidationService with a custom
// clock. Primarily used for testing the time-window gate.
func NewValidationServiceWithClock(coupons CouponReader, purchases PurchaseCounter, now func() time.Time) *ValidationService {
	return &ValidationService{coupons: coupons, purchases: purchases, now: now}
}

// Validate runs the gate chain for the requested purchase. Gates are
// evaluated in order and the first failing gate determines the outcome:
// a response with Valid=false, Discount=0, FinalAmount=amount and a
// gate-specific message. A failed gate is a normal result, not an error;
// errors are reserved for malformed input and store failures.
func (s *ValidationService) Validate(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidateCouponResponse, error) {
	// Defense-in-depth: the handler validates the DTO, but the engine is
	// also called directly by other services.
	if req == nil || req.Amount == nil || *req.Amount < 0 || req.Code == "" || req.ItemID == "" {
		return nil, ErrInvalidRequest
	}
	purchaseType := model.PurchaseType(req.PurchaseType)
	if purchaseType != model.PurchaseCourse && purchaseType != model.PurchaseService {
		return nil, ErrInvalidRequest
	}
	amount := *req.Amount

	coupon, err := s.coupons.FindActiveByCode(ctx, model.NormalizeCode(req.Code))
	if err != nil {
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	if coupon == nil {
		return reject(amount, "Invalid coupon code"), nil
	}

	now := s.now()
	gates := []func(context.Context) (string, error){
		// Time window, inclusive on both ends.
		func(context.Context) (string, error) {
			if now.Before(coupon.ValidFrom) || now.After(coupon.ValidUntil) {
				return "Coupon is expired or not yet valid", nil
			}
			return "", nil
		},
		// Global usage cap.
		func(context.Context) (string, error) {
			if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
				return "Coupon usage limit reached", nil
			}
			return "", nil
		},
		// Minimum spend.
		func(context.Context) (string, error) {
			if coupon.MinPurchaseAmount != nil && amount < *coupon.MinPurchaseAmount {
				return fmt.Sprintf("Minimum purchase amount of %.2f required", *coupon.MinPurchaseAmount), nil
			}
			return "", nil
		},
		// Applicability.
		func(context.Context) (string, error) {
			if !coupon.AppliesTo.Covers(purchaseType, req.ItemID) {
				return "Coupon is not applicable to this item or purchase type", nil
			}
			return "", nil
		},
		// Per-user cap, only when the caller is identified and a limit is set.
		func(ctx context.Context) (string, error) {
			if req.UserID == "" || coupon.UserLimit == nil {
				return "", nil
			}
			used, err := s.purchases.CountCompletedByUserAndCoupon(ctx, req.UserID, coupon.Code)
			if err != nil {
				return "", fmt.Errorf("count redemptions: %w", err)
			}
			if used >= *coupon.UserLimit {
				return "You have already used this coupon the maximum number of times", nil
			}
			return "", nil
		},
	}
	for _, gate := range gates {
		msg, err := gate(ctx)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			return reject(amount, msg), nil
		}
	}

	discount, finalAmount := coupon.DiscountFor(amount)
	return &model.ValidateCouponResponse{
		Valid:       true,
		Discount:    discount,
		FinalAmount: finalAmount,
		CouponCode:  coupon.Code,
		Message:     "Coupon applied successfully",
	}, nil
}

func reject(amount float64, message string) *model.ValidateCouponResponse {
	return &model.ValidateCouponResponse{
		Valid:       false,
		Discount:    0,
		FinalAmount: model.RoundCents(amount),
		Message:     message,
	}
}
