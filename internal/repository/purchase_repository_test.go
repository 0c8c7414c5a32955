package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockPurchasePool implements PurchasePoolInterface for testing.
type mockPurchasePool struct {
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (m *mockPurchasePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func TestPurchaseRepository_CountCompletedByUserAndCoupon(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any
	mock := &mockPurchasePool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedSQL = sql
			capturedArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = 2
				return nil
			}}
		},
	}

	repo := NewPurchaseRepositoryWithPool(mock)
	count, err := repo.CountCompletedByUserAndCoupon(context.Background(), "user-1", "SAVE20")

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, capturedSQL, "status = 'completed'", "only completed purchases count as redemptions")
	assert.Equal(t, []any{"user-1", "SAVE20"}, capturedArgs)
}

func TestPurchaseRepository_CountCompletedByUserAndCoupon_NoRedemptions(t *testing.T) {
	mock := &mockPurchasePool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				*(dest[0].(*int)) = 0
				return nil
			}}
		},
	}

	repo := NewPurchaseRepositoryWithPool(mock)
	count, err := repo.CountCompletedByUserAndCoupon(context.Background(), "user-1", "SAVE20")

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPurchaseRepository_CountCompletedByUserAndCoupon_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPurchasePool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return dbErr }}
		},
	}

	repo := NewPurchaseRepositoryWithPool(mock)
	count, err := repo.CountCompletedByUserAndCoupon(context.Background(), "user-1", "SAVE20")

	require.Error(t, err)
	assert.Zero(t, count)
	assert.Contains(t, err.Error(), "count redemptions")
}
