package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PurchasePoolInterface defines the database operations needed by
// PurchaseRepository.
type PurchasePoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PurchaseRepository is a read-only view over the purchases table, owned by
// the purchase subsystem. The validation engine only needs redemption counts
// from it.
type PurchaseRepository struct {
	pool PurchasePoolInterface
}

// NewPurchaseRepository creates a new PurchaseRepository with the given pool.
func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// NewPurchaseRepositoryWithPool creates a new PurchaseRepository with a
// custom pool interface. This is primarily used for testing.
func NewPurchaseRepositoryWithPool(pool PurchasePoolInterface) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

// CountCompletedByUserAndCoupon counts the completed purchases on which the
// user redeemed the given coupon code.
func (r *PurchaseRepository) CountCompletedByUserAndCoupon(ctx context.Context, userID, code string) (int, error) {
	query := `SELECT COUNT(*) FROM purchases WHERE user_id = $1 AND coupon_code = $2 AND status = 'completed'`

	var count int
	if err := r.pool.QueryRow(ctx, query, userID, code).Scan(&count); err != nil {
		return 0, fmt.Errorf("count redemptions for user %s on %s: %w", userID, code, err)
	}
	return count, nil
}
