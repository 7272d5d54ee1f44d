// Package checkout turns a cart into an order: mock payment processing,
// persisted order history, and the status transitions a shopper can trigger
// (cancellation, return requests).
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vendaria/vendaria/internal/storefront/address"
	"github.com/vendaria/vendaria/internal/storefront/cart"
	"github.com/vendaria/vendaria/internal/storefront/localstore"
	"github.com/vendaria/vendaria/internal/storefront/session"
)

// storeKey is the localstore key holding the order history JSON array.
const storeKey = "orders"

// PaymentMethod is how the shopper pays.
type PaymentMethod string

const (
	MethodPix    PaymentMethod = "pix"
	MethodCredit PaymentMethod = "credit"
	MethodDebit  PaymentMethod = "debit"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusWaitingPayment Status = "waiting_payment"
	StatusPaid           Status = "paid"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var (
	// ErrNotLoggedIn is returned when checkout needs an active session.
	ErrNotLoggedIn = errors.New("log in to place an order")

	// ErrEmptyCart is returned when placing an order with nothing in it.
	ErrEmptyCart = errors.New("the cart is empty")

	// ErrNotFound is returned for operations on an unknown order.
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned for a status change the order's
	// current state does not allow.
	ErrInvalidTransition = errors.New("order status does not allow this")
)

// Order is one placed order: a snapshot of the cart, the chosen address and
// payment method, and everything that happened to it since.
type Order struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"`
	Items         []cart.Item     `json:"items"`
	Address       address.Address `json:"address"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        Status          `json:"status"`
	Total         float64         `json:"total"`
	Payment       PaymentResult   `json:"paymentResult"`

	CancellationReason string `json:"cancellationReason,omitempty"`
	CancelledAt        string `json:"cancelledAt,omitempty"`

	ReturnRequested   bool   `json:"returnRequested,omitempty"`
	ReturnReason      string `json:"returnReason,omitempty"`
	ReturnRequestedAt string `json:"returnRequestedAt,omitempty"`
}

// Service places orders and manages the persisted history.
type Service struct {
	store     localstore.Store
	session   *session.Manager
	cart      *cart.Cart
	processor *Processor

	// now is the clock for order timestamps, overridable in tests.
	now func() time.Time
}

// NewService creates a checkout service.
func NewService(store localstore.Store, sess *session.Manager, c *cart.Cart, p *Processor) *Service {
	return &Service{
		store:     store,
		session:   sess,
		cart:      c,
		processor: p,
		now:       time.Now,
	}
}

// PlaceOrder runs payment for the current cart and, on approval, appends the
// order to the history and empties the cart. The order total is the cart
// subtotal plus shipping at the moment of purchase.
func (s *Service) PlaceOrder(ctx context.Context, deliverTo address.Address, method PaymentMethod) (Order, error) {
	if s.session.State() != session.Active {
		return Order{}, ErrNotLoggedIn
	}
	switch method {
	case MethodPix, MethodCredit, MethodDebit:
	default:
		return Order{}, fmt.Errorf("unknown payment method %q", method)
	}

	items, err := s.cart.Items(ctx)
	if err != nil {
		return Order{}, err
	}
	if len(items) == 0 {
		return Order{}, ErrEmptyCart
	}

	result, err := s.processor.Process(ctx)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:            result.TransactionID,
		Date:          s.now().UTC().Format(time.RFC3339),
		Items:         items,
		Address:       deliverTo,
		PaymentMethod: method,
		Status:        StatusWaitingPayment,
		Total:         cart.Summarize(items).Total,
		Payment:       result,
	}

	orders, err := s.Orders(ctx)
	if err != nil {
		return Order{}, err
	}
	orders = append(orders, order)

	if err := s.save(ctx, orders); err != nil {
		return Order{}, err
	}
	if err := s.cart.Clear(ctx); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Orders returns the persisted order history, oldest first.
func (s *Service) Orders(ctx context.Context) ([]Order, error) {
	raw, ok, err := s.store.Get(ctx, storeKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var orders []Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Cancel cancels an order that has not shipped yet (waiting_payment or paid).
func (s *Service) Cancel(ctx context.Context, orderID, reason string) error {
	return s.mutate(ctx, orderID, func(order *Order) error {
		if order.Status != StatusWaitingPayment && order.Status != StatusPaid {
			return ErrInvalidTransition
		}
		order.Status = StatusCancelled
		order.CancellationReason = reason
		order.CancelledAt = s.now().UTC().Format(time.RFC3339)
		return nil
	})
}

// RequestReturn flags a delivered order for return. The status itself stays
// delivered; the return runs as a side channel.
func (s *Service) RequestReturn(ctx context.Context, orderID, reason string) error {
	return s.mutate(ctx, orderID, func(order *Order) error {
		if order.Status != StatusDelivered {
			return ErrInvalidTransition
		}
		order.ReturnRequested = true
		order.ReturnReason = reason
		order.ReturnRequestedAt = s.now().UTC().Format(time.RFC3339)
		return nil
	})
}

// UpdateStatus applies a fulfilment update (payment confirmed, shipped,
// delivered). Only forward transitions are allowed; shopper-driven changes
// go through Cancel and RequestReturn instead.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	forward := map[Status]Status{
		StatusWaitingPayment: StatusPaid,
		StatusPaid:           StatusShipped,
		StatusShipped:        StatusDelivered,
	}
	return s.mutate(ctx, orderID, func(order *Order) error {
		if forward[order.Status] != status {
			return ErrInvalidTransition
		}
		order.Status = status
		return nil
	})
}

// mutate loads the history, applies fn to the matching order, and saves.
func (s *Service) mutate(ctx context.Context, orderID string, fn func(*Order) error) error {
	orders, err := s.Orders(ctx)
	if err != nil {
		return err
	}
	for i := range orders {
		if orders[i].ID != orderID {
			continue
		}
		if err := fn(&orders[i]); err != nil {
			return err
		}
		return s.save(ctx, orders)
	}
	return ErrNotFound
}

func (s *Service) save(ctx context.Context, orders []Order) error {
	raw, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, storeKey, string(raw))
}
