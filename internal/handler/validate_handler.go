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

// ValidationServiceInterface defines the interface for the validation engine.
type ValidationServiceInterface interface {
	Validate(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidateCouponResponse, error)
}

// ValidateHandler handles HTTP requests for coupon validation.
type ValidateHandler struct {
	service   ValidationServiceInterface
	validator *validator.Validate
}

// NewValidateHandler creates a new ValidateHandler with the given service and
// validator.
func NewValidateHandler(svc ValidationServiceInterface, v *validator.Validate) *ValidateHandler {
	return &ValidateHandler{service: svc, validator: v}
}

// formatValidateValidationError converts validator errors into the exact
// request-validation messages for the validate endpoint.
func formatValidateValidationError(err error) string {
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
				case "max":
					return "invalid request: code exceeds maximum length of 64"
				}
				return "invalid request: code is invalid"
			case "PurchaseType":
				if fe.Tag() == "required" {
					return "invalid request: purchase_type is required"
				}
				return "invalid request: purchase_type must be 'course' or 'service'"
			case "ItemID":
				if fe.Tag() == "required" {
					return "invalid request: item_id is required"
				}
				return "invalid request: item_id is invalid"
			case "Amount":
				if fe.Tag() == "required" {
					return "invalid request: amount is required"
				}
				return "invalid request: amount must be zero or greater"
			default:
				return "invalid request: " + fe.Field() + " is invalid"
			}
		}
	}
	return "invalid request"
}

// ValidateCoupon handles POST /api/coupons/validate requests. Malformed
// input is a 400; a failed gate is a normal 200 response carrying
// valid=false, so callers branch on the verdict rather than the status.
func (h *ValidateHandler) ValidateCoupon(c *fiber.Ctx) error {
	var req model.ValidateCouponRequest

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidateValidationError(err)})
	}

	result, err := h.service.Validate(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		log.Error().
			Err(err).
			Str("request_id", c.GetRespHeader("X-Request-ID")).
			Str("coupon_code", req.Code).
			Msg("failed to validate coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	log.Info().
		Str("request_id", c.GetRespHeader("X-Request-ID")).
		Str("coupon_code", req.Code).
		Bool("valid", result.Valid).
		Float64("discount", result.Discount).
		Msg("coupon validated")

	return c.JSON(result)
}
