package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/learnmart/coupon-service/internal/model"
	"github.com/learnmart/coupon-service/internal/service"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom
// pool interface. This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

const couponColumns = `id, code, discount_type, discount_value, min_purchase_amount,
	max_discount_amount, valid_from, valid_until, usage_limit, usage_count,
	user_limit, applies_scope, applies_category, applies_item_ids, is_active,
	description, created_by, created_at, updated_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	var scope, category string
	var itemIDs []string
	err := row.Scan(
		&c.ID,
		&c.Code,
		(*string)(&c.DiscountType),
		&c.DiscountValue,
		&c.MinPurchaseAmount,
		&c.MaxDiscountAmount,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.UsageLimit,
		&c.UsageCount,
		&c.UserLimit,
		&scope,
		&category,
		&itemIDs,
		&c.IsActive,
		&c.Description,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AppliesTo = model.Applicability{
		Scope:    model.ApplicabilityScope(scope),
		Category: model.PurchaseType(category),
		ItemIDs:  itemIDs,
	}
	return &c, nil
}

// Insert inserts a new coupon into the database.
// Returns service.ErrCouponExists if the code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO coupons (id, code, discount_type, discount_value,
			min_purchase_amount, max_discount_amount, valid_from, valid_until,
			usage_limit, user_limit, applies_scope, applies_category,
			applies_item_ids, is_active, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		coupon.ID, coupon.Code, string(coupon.DiscountType), coupon.DiscountValue,
		coupon.MinPurchaseAmount, coupon.MaxDiscountAmount, coupon.ValidFrom,
		coupon.ValidUntil, coupon.UsageLimit, coupon.UserLimit,
		string(coupon.AppliesTo.Scope), string(coupon.AppliesTo.Category),
		coupon.AppliesTo.ItemIDs, coupon.IsActive, coupon.Description,
		coupon.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// FindActiveByCode retrieves an active coupon by its normalized code.
// Returns nil, nil if no active coupon carries the code (service layer
// handles this).
func (r *CouponRepository) FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND is_active = TRUE`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active coupon %s: %w", code, err)
	}
	return coupon, nil
}

// GetByCode retrieves a coupon by its code regardless of active state.
// Returns nil, nil if the coupon is not found.
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1`

	coupon, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return coupon, nil
}

// List returns a page of coupons ordered by creation time, newest first,
// together with the total count.
func (r *CouponRepository) List(ctx context.Context, limit, offset int) ([]model.Coupon, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM coupons`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	query := `SELECT ` + couponColumns + ` FROM coupons ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, *coupon)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, total, nil
}

// Update rewrites the mutable fields of a coupon identified by ID.
// Returns service.ErrCouponNotFound if no row matches.
func (r *CouponRepository) Update(ctx context.Context, coupon *model.Coupon) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET discount_type = $2, discount_value = $3,
			min_purchase_amount = $4, max_discount_amount = $5, valid_from = $6,
			valid_until = $7, usage_limit = $8, user_limit = $9,
			applies_scope = $10, applies_category = $11, applies_item_ids = $12,
			is_active = $13, description = $14, updated_at = now()
		WHERE id = $1`,
		coupon.ID, string(coupon.DiscountType), coupon.DiscountValue,
		coupon.MinPurchaseAmount, coupon.MaxDiscountAmount, coupon.ValidFrom,
		coupon.ValidUntil, coupon.UsageLimit, coupon.UserLimit,
		string(coupon.AppliesTo.Scope), string(coupon.AppliesTo.Category),
		coupon.AppliesTo.ItemIDs, coupon.IsActive, coupon.Description)
	if err != nil {
		return fmt.Errorf("update coupon %s: %w", coupon.Code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// Deactivate soft-deletes a coupon so lookups no longer see it.
// Returns service.ErrCouponNotFound if no active coupon carries the code.
func (r *CouponRepository) Deactivate(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET is_active = FALSE, updated_at = now() WHERE code = $1 AND is_active = TRUE`,
		code)
	if err != nil {
		return fmt.Errorf("deactivate coupon %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}

// IncrementUsage bumps usage_count by one as a single in-database add.
// The counter is shared mutable state under concurrent redemptions, so this
// must stay one atomic UPDATE, never a read-modify-write.
// Returns service.ErrCouponNotFound for an unknown coupon ID.
func (r *CouponRepository) IncrementUsage(ctx context.Context, couponID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE coupons SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`,
		couponID)
	if err != nil {
		return fmt.Errorf("increment usage for %s: %w", couponID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponNotFound
	}
	return nil
}
