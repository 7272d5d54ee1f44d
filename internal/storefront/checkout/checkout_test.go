package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendaria/vendaria/internal/storefront/address"
	"github.com/vendaria/vendaria/internal/storefront/cart"
	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

func newTestService(t *testing.T) (*Service, *cart.Cart, *session.Manager) {
	t.Helper()

	store := localstore.NewMemory()
	sess := session.NewManager(30*time.Minute, nil)
	sess.Activate()

	c := cart.New(store, sess)
	svc := NewService(store, sess, c, NewProcessor(0))
	return svc, c, sess
}

func deliveryAddress() address.Address {
	return address.Address{
		ID: 1, Type: address.TypeHome, CEP: "01310-100",
		Street: "Avenida Paulista", Number: "1000",
		Neighborhood: "Bela Vista", City: "São Paulo", State: "SP",
	}
}

func fillCart(t *testing.T, c *cart.Cart, price float64, qty int) {
	t.Helper()
	require.NoError(t, c.Add(context.Background(), cart.Item{
		ID: 1, Title: "Product", Price: price, Quantity: qty,
	}))
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 2) // subtotal 100, shipping 100

	order, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodPix)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, StatusWaitingPayment, order.Status)
	assert.Equal(t, 200.0, order.Total, "total must include shipping")
	assert.True(t, order.Payment.Success)
	assert.NotEmpty(t, order.Payment.TransactionID)
	require.Len(t, order.Items, 1)

	// The cart is emptied and the order is in the history.
	items, err := c.Items(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	orders, err := svc.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestPlaceOrderFreeShippingTotal(t *testing.T) {
	svc, c, _ := newTestService(t)
	fillCart(t, c, 399, 1)

	order, err := svc.PlaceOrder(context.Background(), deliveryAddress(), MethodCredit)
	require.NoError(t, err)
	assert.Equal(t, 399.0, order.Total)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.PlaceOrder(context.Background(), deliveryAddress(), MethodPix)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderRequiresActiveSession(t *testing.T) {
	svc, c, sess := newTestService(t)
	fillCart(t, c, 50, 1)
	sess.Deactivate()

	_, err := svc.PlaceOrder(context.Background(), deliveryAddress(), MethodPix)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestPlaceOrderUnknownPaymentMethod(t *testing.T) {
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 1)

	_, err := svc.PlaceOrder(context.Background(), deliveryAddress(), "barter")
	assert.Error(t, err)
}

func TestPlaceOrderHonorsCancellation(t *testing.T) {
	store := localstore.NewMemory()
	sess := session.NewManager(30*time.Minute, nil)
	sess.Activate()
	c := cart.New(store, sess)
	svc := NewService(store, sess, c, NewProcessor(5*time.Second))
	fillCart(t, c, 50, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodPix)
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was committed.
	items, itemsErr := c.Items(context.Background())
	require.NoError(t, itemsErr)
	assert.Len(t, items, 1)
}

func TestCancelWhileWaitingPayment(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 1)

	order, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodPix)
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, order.ID, "found it cheaper elsewhere"))

	orders, err := svc.Orders(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, orders[0].Status)
	assert.Equal(t, "found it cheaper elsewhere", orders[0].CancellationReason)
	assert.NotEmpty(t, orders[0].CancelledAt)
}

func TestCancelAfterShippingRejected(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 1)

	order, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodCredit)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, StatusPaid))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, StatusShipped))

	assert.ErrorIs(t, svc.Cancel(ctx, order.ID, "too late"), ErrInvalidTransition)
}

func TestRequestReturnOnlyAfterDelivery(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 1)

	order, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodDebit)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RequestReturn(ctx, order.ID, "wrong size"), ErrInvalidTransition)

	require.NoError(t, svc.UpdateStatus(ctx, order.ID, StatusPaid))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, StatusShipped))
	require.NoError(t, svc.UpdateStatus(ctx, order.ID, StatusDelivered))

	require.NoError(t, svc.RequestReturn(ctx, order.ID, "wrong size"))

	orders, err := svc.Orders(ctx)
	require.NoError(t, err)
	assert.True(t, orders[0].ReturnRequested)
	assert.Equal(t, StatusDelivered, orders[0].Status, "return keeps the delivered status")
}

func TestUpdateStatusRejectsSkips(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)
	fillCart(t, c, 50, 1)

	order, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodPix)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, order.ID, StatusDelivered), ErrInvalidTransition)
}

func TestOperationsOnUnknownOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	assert.ErrorIs(t, svc.Cancel(ctx, "nope", "reason"), ErrNotFound)
	assert.ErrorIs(t, svc.RequestReturn(ctx, "nope", "reason"), ErrNotFound)
}

func TestOrderHistoryAccumulates(t *testing.T) {
	ctx := context.Background()
	svc, c, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		fillCart(t, c, 50, 1)
		_, err := svc.PlaceOrder(ctx, deliveryAddress(), MethodPix)
		require.NoError(t, err)
	}

	orders, err := svc.Orders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestProcessorMintsUniqueTransactionIDs(t *testing.T) {
	p := NewProcessor(0)

	first, err := p.Process(context.Background())
	require.NoError(t, err)
	second, err := p.Process(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.TransactionID, second.TransactionID)
}
