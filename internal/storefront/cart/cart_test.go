package cart

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

func activeCart(t *testing.T) *Cart {
	t.Helper()
	sess := session.NewManager(30*time.Minute, nil)
	sess.Activate()
	return New(localstore.NewMemory(), sess)
}

func item(id int64, price float64) Item {
	return Item{ID: id, Title: "Product", Price: price, Quantity: 1}
}

func TestAddRequiresActiveSession(t *testing.T) {
	sess := session.NewManager(30*time.Minute, nil)
	c := New(localstore.NewMemory(), sess)

	err := c.Add(context.Background(), item(1, 10))
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAddMergesByProductID(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.Add(ctx, item(2, 5)))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.Add(ctx, item(2, 5)))
	require.NoError(t, c.Remove(ctx, 1))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].ID)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.SetQuantity(ctx, 1, 5))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.SetQuantity(ctx, 1, 0))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestShippingBoundary(t *testing.T) {
	cases := []struct {
		name     string
		subtotal float64
		shipping float64
	}{
		{"below threshold", 398.99, 100},
		{"exactly at threshold", 399, 0},
		{"above threshold", 400, 0},
		{"cheap cart", 10, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Summarize([]Item{{ID: 1, Price: tc.subtotal, Quantity: 1}})
			assert.Equal(t, tc.subtotal, summary.Subtotal)
			assert.Equal(t, tc.shipping, summary.Shipping)
			assert.Equal(t, tc.subtotal+tc.shipping, summary.Total)
		})
	}
}

func TestSummarizeCountsQuantities(t *testing.T) {
	summary := Summarize([]Item{
		{ID: 1, Price: 100, Quantity: 3}, // 300
		{ID: 2, Price: 50, Quantity: 2},  // 100
	})
	assert.Equal(t, 400.0, summary.Subtotal)
	assert.Equal(t, 0.0, summary.Shipping)
	assert.Equal(t, 400.0, summary.Total)
}

func TestEmptyCartSummary(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	summary, err := c.Summarize(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	c := activeCart(t)

	require.NoError(t, c.Add(ctx, item(1, 10)))
	require.NoError(t, c.Clear(ctx))

	items, err := c.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
