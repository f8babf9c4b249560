package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mnw01/scan-order/internal/enum"
	"github.com/mnw01/scan-order/internal/feed"
)

// ErrOrderNotFound is returned by Advance for an order ID not in the active
// queue.
var ErrOrderNotFound = errors.New("order not found in queue")

// OrderQueueStore is a live local view of one restaurant's active orders
// (pending, preparing, served), newest first. Like the cart store it never
// applies writes locally: every change-feed notification triggers a
// re-fetch, so multiple kitchen screens converge on the same queue.
type OrderQueueStore struct {
	api          *Client
	feed         *Feed
	restaurantID uuid.UUID

	mu      sync.Mutex
	orders  []Order
	known   map[uuid.UUID]bool
	initial bool
	err     error

	changed  emitter[[]Order]
	newOrder emitter[Order]
	errored  emitter[error]

	unsubscribe []func()
}

// NewOrderQueueStore builds the store and loads the initial queue. The feed
// may be nil, in which case the queue only updates on explicit Refresh calls.
func NewOrderQueueStore(ctx context.Context, api *Client, f *Feed, restaurantID uuid.UUID) *OrderQueueStore {
	s := &OrderQueueStore{
		api:          api,
		feed:         f,
		restaurantID: restaurantID,
		known:        make(map[uuid.UUID]bool),
		initial:      true,
	}
	if f != nil {
		s.unsubscribe = append(s.unsubscribe,
			f.Subscribe(s.onChange),
			f.OnReconnect(func() { s.Refresh(context.Background()) }),
		)
	}
	s.Refresh(ctx)
	return s
}

func (s *OrderQueueStore) onChange(c feed.Change) {
	if c.Table != feed.TableOrders || c.RestaurantID != s.restaurantID {
		return
	}
	s.Refresh(context.Background())
}

// Refresh re-fetches the active queue. Orders that were not in the previous
// snapshot are emitted as new-order events, which is what drives the kitchen
// alert sound; status changes only fire changed.
func (s *OrderQueueStore) Refresh(ctx context.Context) {
	orders, err := s.api.ListActiveOrders(ctx, s.restaurantID)

	s.mu.Lock()
	if err != nil {
		s.err = err
		s.mu.Unlock()
		s.errored.emit(err)
		return
	}
	s.err = nil
	s.orders = orders

	var fresh []Order
	active := make(map[uuid.UUID]bool, len(orders))
	for _, o := range orders {
		active[o.ID] = true
		if !s.known[o.ID] {
			s.known[o.ID] = true
			fresh = append(fresh, o)
		}
	}
	// Orders that left the active set (completed) are forgotten so known
	// does not grow without bound over a service day.
	for id := range s.known {
		if !active[id] {
			delete(s.known, id)
		}
	}
	// The very first load is a catch-up, not a burst of new orders.
	if s.initial {
		s.initial = false
		fresh = nil
	}
	// Subscribers get their own copy; the stored slice stays private.
	out := make([]Order, len(orders))
	copy(out, orders)
	s.mu.Unlock()

	s.changed.emit(out)
	for _, o := range fresh {
		s.newOrder.emit(o)
	}
}

// Orders returns the active queue, newest first.
func (s *OrderQueueStore) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Grouped returns the queue bucketed by status. It is derived from the list
// on every call, never maintained separately, so the two views cannot
// disagree.
func (s *OrderQueueStore) Grouped() map[string][]Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]Order)
	for _, o := range s.orders {
		out[o.Status] = append(out[o.Status], o)
	}
	return out
}

// Err returns the error from the most recent failed operation, or nil after
// a successful refresh.
func (s *OrderQueueStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Advance moves an order to its single legal successor status. Completed
// orders drop out of the queue on the next refresh.
func (s *OrderQueueStore) Advance(ctx context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	var current *Order
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			current = &s.orders[i]
			break
		}
	}
	if current == nil {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	next, ok := enum.NextOrderStatus(current.Status)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("order is already %s", enum.StatusLabel(current.Status))
	}

	if _, err := s.api.UpdateOrderStatus(ctx, s.restaurantID, orderID, next); err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		s.errored.emit(err)
		return err
	}
	s.Refresh(ctx)
	return nil
}

// OnChanged registers fn for every successful refresh. Returns a disposer.
func (s *OrderQueueStore) OnChanged(fn func([]Order)) func() {
	return s.changed.subscribe(fn)
}

// OnNewOrder registers fn for orders appearing in the queue after the
// initial load. Returns a disposer.
func (s *OrderQueueStore) OnNewOrder(fn func(Order)) func() {
	return s.newOrder.subscribe(fn)
}

// OnError registers fn for failed operations. Returns a disposer.
func (s *OrderQueueStore) OnError(fn func(error)) func() {
	return s.errored.subscribe(fn)
}

// Close detaches the store from its feed.
func (s *OrderQueueStore) Close() {
	for _, u := range s.unsubscribe {
		u()
	}
	s.unsubscribe = nil
}
