package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/learnmart/coupon-service/internal/model"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]model.Coupon, int64, error)
	Update(ctx context.Context, coupon *model.Coupon) error
	Deactivate(ctx context.Context, code string) error
	IncrementUsage(ctx context.Context, couponID string) error
}

// CouponService provides the administrative coupon lifecycle and the
// redemption recorder.
type CouponService struct {
	repo CouponRepositoryInterface
}

// NewCouponService creates a new CouponService with the given repository.
func NewCouponService(repo CouponRepositoryInterface) *CouponService {
	return &CouponService{repo: repo}
}

// Create creates a new coupon from the request. The code is stored
// uppercased. Returns ErrCouponExists if the code is already taken and
// ErrInvalidRequest for inconsistent rule combinations.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil || req.DiscountValue == nil {
		return nil, ErrInvalidRequest
	}
	if req.ValidUntil.Before(req.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until precedes valid_from", ErrInvalidRequest)
	}
	if req.DiscountType == model.DiscountPercentage && *req.DiscountValue > 100 {
		return nil, fmt.Errorf("%w: percentage discount cannot exceed 100", ErrInvalidRequest)
	}

	appliesTo := req.AppliesTo
	if appliesTo.Scope == "" {
		appliesTo.Scope = model.ScopeAll
	}
	if !appliesTo.Valid() {
		return nil, fmt.Errorf("%w: malformed applicability", ErrInvalidRequest)
	}

	coupon := &model.Coupon{
		ID:                uuid.NewString(),
		Code:              model.NormalizeCode(req.Code),
		DiscountType:      req.DiscountType,
		DiscountValue:     *req.DiscountValue,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
		UserLimit:         req.UserLimit,
		AppliesTo:         appliesTo,
		IsActive:          true,
		Description:       req.Description,
		CreatedBy:         req.CreatedBy,
	}
	if err := s.repo.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by its code, active or not.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	coupon, err := s.repo.GetByCode(ctx, model.NormalizeCode(code))
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// List returns a page of coupons ordered by creation time.
func (s *CouponService) List(ctx context.Context, page, limit int) (*model.ListCouponsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	coupons, total, err := s.repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	return &model.ListCouponsResponse{
		Coupons: coupons,
		Page:    page,
		Limit:   limit,
		Total:   total,
	}, nil
}

// Update applies a partial update to the coupon with the given code.
// Nil request fields leave the stored values unchanged.
func (s *CouponService) Update(ctx context.Context, code string, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}
	coupon, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if req.DiscountType != nil {
		coupon.DiscountType = *req.DiscountType
	}
	if req.DiscountValue != nil {
		coupon.DiscountValue = *req.DiscountValue
	}
	if req.MinPurchaseAmount != nil {
		coupon.MinPurchaseAmount = req.MinPurchaseAmount
	}
	if req.MaxDiscountAmount != nil {
		coupon.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.ValidFrom != nil {
		coupon.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		coupon.ValidUntil = *req.ValidUntil
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = req.UsageLimit
	}
	if req.UserLimit != nil {
		coupon.UserLimit = req.UserLimit
	}
	if req.AppliesTo != nil {
		coupon.AppliesTo = *req.AppliesTo
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}
	if req.Description != nil {
		coupon.Description = *req.Description
	}

	if coupon.ValidUntil.Before(coupon.ValidFrom) {
		return nil, fmt.Errorf("%w: valid_until precedes valid_from", ErrInvalidRequest)
	}
	if coupon.DiscountType == model.DiscountPercentage && coupon.DiscountValue > 100 {
		return nil, fmt.Errorf("%w: percentage discount cannot exceed 100", ErrInvalidRequest)
	}
	if !coupon.AppliesTo.Valid() {
		return nil, fmt.Errorf("%w: malformed applicability", ErrInvalidRequest)
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	return coupon, nil
}

// Deactivate soft-deletes a coupon so it becomes invisible to validation.
// Returns ErrCouponNotFound if the coupon doesn't exist.
func (s *CouponService) Deactivate(ctx context.Context, code string) error {
	return s.repo.Deactivate(ctx, model.NormalizeCode(code))
}

// RecordRedemption bumps the coupon's usage counter by exactly one. It is
// invoked by the purchase-completion flow, never by validation, and the
// increment happens inside the database so concurrent redemptions cannot
// lose updates. Returns ErrCouponNotFound for an unknown coupon ID.
func (s *CouponService) RecordRedemption(ctx context.Context, couponID string) error {
	if couponID == "" {
		return ErrInvalidRequest
	}
	return s.repo.IncrementUsage(ctx, couponID)
}
