package service

import "errors"

var (
	// ErrCouponExists is returned when creating a coupon whose code is already taken
	ErrCouponExists = errors.New("coupon code already exists")

	// ErrCouponNotFound is returned when a coupon cannot be found
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")
)
