package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/learnmart/coupon-service/internal/model"
	"github.com/learnmart/coupon-service/internal/service"
)

// CouponServiceInterface defines the interface for the administrative coupon
// lifecycle and the redemption recorder.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, page, limit int) (*model.ListCouponsResponse, error)
	Update(ctx context.Context, code string, req *model.UpdateCouponRequest) (*model.Coupon, error)
	Deactivate(ctx context.Context, code string) error
	RecordRedemption(ctx context.Context, couponID string) error
}

// CouponHandler handles HTTP requests for coupon administration.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and
// validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// formatCouponValidationError converts validator errors to request-validation
// messages for the admin endpoints.
func formatCouponValidationError(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			switch fe.Field() {
			case "Code":
				switch fe.Tag() {
				case "required":
					return "invalid request: code is required"
				case "notblank":
					return "invalid request: code cannot be whitespace only"
				case "min":
					return "invalid request: code must be at least 3 characters"
				case "max":
					return "invalid request: code exceeds maximum length of 64"
				}
				return "invalid request: code is invalid"
			case "DiscountType":
				if fe.Tag() == "required" {
					return "invalid request: discount_type is required"
				}
				return "invalid request: discount_type must be 'percentage' or 'fixed'"
			case "DiscountValue":
				if fe.Tag() == "required" {
					return "invalid request: discount_value is required"
				}
				return "invalid request: discount_value must be zero or greater"
			case "ValidFrom":
				return "invalid request: valid_from is required"
			case "ValidUntil":
				return "invalid request: valid_until is required"
			case "UsageLimit":
				return "invalid request: usage_limit must be at least 1"
			case "UserLimit":
				return "invalid request: user_limit must be at least 1"
			default:
				return "invalid request: " + fe.Field() + " is invalid"
			}
		}
	}
	return "invalid request"
}

// CreateCoupon handles POST /api/coupons requests.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponExists) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon code already exists"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("coupon_code", req.Code).Msg("failed to create coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("coupon_code", coupon.Code).
		Str("discount_type", string(coupon.DiscountType)).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// GetCoupon handles GET /api/coupons/:code requests.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	coupon, err := h.service.GetByCode(c.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to get coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// ListCoupons handles GET /api/coupons requests with page/limit query params.
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	result, err := h.service.List(c.Context(), page, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(result)
}

// UpdateCoupon handles PATCH /api/coupons/:code requests.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatCouponValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), code, &req)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to update coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(coupon)
}

// DeactivateCoupon handles DELETE /api/coupons/:code requests. Deletion is
// soft: the coupon stays in storage but becomes invisible to validation.
func (h *CouponHandler) DeactivateCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: code is required"})
	}

	if err := h.service.Deactivate(c.Context(), code); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		log.Error().Err(err).Str("coupon_code", code).Msg("failed to deactivate coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().Str("coupon_code", code).Msg("coupon deactivated")
	return c.Status(fiber.StatusNoContent).Send(nil)
}

// RecordRedemption handles POST /api/coupons/:id/redemptions requests,
// invoked by the purchase-completion flow once per redeemed purchase.
func (h *CouponHandler) RecordRedemption(c *fiber.Ctx) error {
	couponID := c.Params("id")
	if couponID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: id is required"})
	}

	if err := h.service.RecordRedemption(c.Context(), couponID); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
		}
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_id", couponID).
			Msg("failed to record redemption")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("coupon_id", couponID).
		Msg("redemption recorded")

	return c.Status(fiber.StatusNoContent).Send(nil)
}
