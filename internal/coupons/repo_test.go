package coupons

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linkcart/storefront-core/pkg/db"
	"github.com/linkcart/storefront-core/pkg/db/dbtest"
	"github.com/linkcart/storefront-core/pkg/db/models"
	"github.com/linkcart/storefront-core/pkg/enums"
)

func newCoupon(code string) *models.Coupon {
	return &models.Coupon{
		Code:        code,
		Type:        enums.CouponTypePercent,
		Value:       decimal.NewFromInt(10),
		ApplyTo:     enums.CouponScopeCart,
		IsActive:    true,
		MinPurchase: decimal.Zero,
	}
}

func TestRepositoryFindByCodeIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	created, err := repo.Create(ctx, newCoupon(" summer10 "))
	require.NoError(t, err)
	assert.Equal(t, "SUMMER10", created.Code)
	assert.NotEqual(t, uuid.Nil, created.ID)

	for _, code := range []string{"summer10", "SUMMER10", "Summer10 "} {
		found, err := repo.FindByCode(ctx, code)
		require.NoError(t, err, code)
		assert.Equal(t, created.ID, found.ID)
		assert.True(t, decimal.NewFromInt(10).Equal(found.Value))
	}

	_, err = repo.FindByCode(ctx, "winter")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryFindByCodeReturnsInactiveCoupons(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	c := newCoupon("OLD")
	c.IsActive = false
	_, err := repo.Create(ctx, c)
	require.NoError(t, err)

	found, err := repo.FindByCode(ctx, "old")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestRepositoryCodeUniqueIgnoresCase(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	_, err := repo.Create(ctx, newCoupon("DUP"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newCoupon("dup"))
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryIncrementUsageRespectsLimit(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	limited := newCoupon("TWICE")
	limited.MaxUses = 2
	_, err := repo.Create(ctx, limited)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(ctx, limited.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := repo.IncrementUsage(ctx, limited.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, limited.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.UsedCount)

	unlimited := newCoupon("FOREVER")
	_, err = repo.Create(ctx, unlimited)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		ok, err := repo.IncrementUsage(ctx, unlimited.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestRepositoryUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	c, err := repo.Create(ctx, newCoupon("EDIT"))
	require.NoError(t, err)

	c.Code = "edited"
	c.MaxUses = 7
	_, err = repo.Update(ctx, c)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "EDITED", found.Code)
	assert.Equal(t, 7, found.MaxUses)

	require.NoError(t, repo.Delete(ctx, c.ID))
	assert.True(t, errors.Is(repo.Delete(ctx, c.ID), gorm.ErrRecordNotFound))
}

func TestRepositoryListPagesNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(dbtest.Open(t))

	for _, code := range []string{"A1", "A2", "A3"} {
		_, err := repo.Create(ctx, newCoupon(code))
		require.NoError(t, err)
	}

	rows, err := repo.List(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "list fetches one extra row to detect the next page")
}
