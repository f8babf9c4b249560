package client

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mnw01/scan-order/internal/feed"
)

// CartStore is a live local view of one table's shared cart. Every session at
// the table sees the same rows: mutations go to the server, the local copy is
// re-fetched afterwards and again on every change-feed notification, so
// writes from other sessions show up without any action here. Nothing is
// applied optimistically.
type CartStore struct {
	api   *Client
	feed  *Feed
	scope Scope

	mu    sync.Mutex
	lines []CartLine
	err   error

	changed           emitter[[]CartLine]
	errored           emitter[error]
	checkoutSucceeded emitter[uuid.UUID]
	checkoutFailed    emitter[error]

	unsubscribe []func()
}

// NewCartStore builds the store and loads the initial cart. The feed may be
// nil, in which case the cart only updates on this store's own writes and
// explicit Refresh calls.
func NewCartStore(ctx context.Context, api *Client, f *Feed, scope Scope) *CartStore {
	s := &CartStore{api: api, feed: f, scope: scope}
	if f != nil {
		s.unsubscribe = append(s.unsubscribe,
			f.Subscribe(s.onChange),
			f.OnReconnect(func() { s.Refresh(context.Background()) }),
		)
	}
	s.Refresh(ctx)
	return s
}

func (s *CartStore) onChange(c feed.Change) {
	if c.Table != feed.TableCartItems {
		return
	}
	if c.RestaurantID != s.scope.RestaurantID || c.TableNumber != s.scope.TableNumber {
		return
	}
	// The notification names the row but carries no data; fetch the
	// authoritative state. Duplicate notifications just refresh twice.
	s.Refresh(context.Background())
}

// Refresh re-fetches the cart. On failure the last-known-good lines are kept
// and the error is retained until a later refresh succeeds.
func (s *CartStore) Refresh(ctx context.Context) {
	lines, err := s.api.ListCart(ctx, s.scope)

	s.mu.Lock()
	if err != nil {
		s.err = err
		s.mu.Unlock()
		s.errored.emit(err)
		return
	}
	s.err = nil
	s.lines = lines
	// Subscribers get their own copy; the stored slice stays private.
	out := make([]CartLine, len(lines))
	copy(out, lines)
	s.mu.Unlock()

	s.changed.emit(out)
}

// Lines returns the current cart lines, oldest first.
func (s *CartStore) Lines() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Err returns the error from the most recent failed operation, or nil after
// a successful refresh.
func (s *CartStore) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// TotalAmount is the sum of quantity times current menu price over all lines.
func (s *CartStore) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.MenuItem.Price.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return total
}

// TotalItemCount is the sum of quantities over all lines.
func (s *CartStore) TotalItemCount() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int32
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// AddItem adds quantity of a menu item with the given option configuration.
// If a line with the same menu item and deep-equal options already exists
// locally, its quantity is raised instead of inserting; the server's upsert
// merges the same way, so two sessions adding concurrently still end up with
// one line.
func (s *CartStore) AddItem(ctx context.Context, menuItemID uuid.UUID, quantity int32, selectedOptions map[string]string) error {
	s.mu.Lock()
	var match *CartLine
	for i := range s.lines {
		l := &s.lines[i]
		if l.MenuItemID == menuItemID && maps.Equal(l.SelectedOptions, selectedOptions) {
			match = l
			break
		}
	}
	var err error
	if match != nil {
		id, newQty := match.ID, match.Quantity+quantity
		s.mu.Unlock()
		err = s.api.UpdateCartItemQuantity(ctx, s.scope, id, newQty)
	} else {
		s.mu.Unlock()
		_, err = s.api.AddCartItem(ctx, s.scope, menuItemID, quantity, selectedOptions)
	}
	if err != nil {
		s.fail(err)
		return err
	}
	s.Refresh(ctx)
	return nil
}

// SetQuantity sets a line's quantity. A quantity <= 0 removes the line.
func (s *CartStore) SetQuantity(ctx context.Context, lineID uuid.UUID, quantity int32) error {
	if err := s.api.UpdateCartItemQuantity(ctx, s.scope, lineID, quantity); err != nil {
		s.fail(err)
		return err
	}
	s.Refresh(ctx)
	return nil
}

// RemoveItem removes a line. Removing a line another session already removed
// succeeds.
func (s *CartStore) RemoveItem(ctx context.Context, lineID uuid.UUID) error {
	if err := s.api.DeleteCartItem(ctx, s.scope, lineID); err != nil {
		s.fail(err)
		return err
	}
	s.Refresh(ctx)
	return nil
}

// Checkout submits the cart as an order. The conversion happens atomically on
// the server; on success the cart comes back empty on refresh.
func (s *CartStore) Checkout(ctx context.Context, notes string) (uuid.UUID, error) {
	orderID, err := s.api.Checkout(ctx, s.scope, notes)
	if err != nil {
		s.fail(err)
		s.checkoutFailed.emit(err)
		return uuid.Nil, err
	}
	s.checkoutSucceeded.emit(orderID)
	s.Refresh(ctx)
	return orderID, nil
}

func (s *CartStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.errored.emit(err)
}

// OnChanged registers fn for every successful refresh. Returns a disposer.
func (s *CartStore) OnChanged(fn func([]CartLine)) func() {
	return s.changed.subscribe(fn)
}

// OnError registers fn for failed operations. Returns a disposer.
func (s *CartStore) OnError(fn func(error)) func() {
	return s.errored.subscribe(fn)
}

// OnCheckoutSucceeded registers fn with the new order's ID. Returns a
// disposer.
func (s *CartStore) OnCheckoutSucceeded(fn func(uuid.UUID)) func() {
	return s.checkoutSucceeded.subscribe(fn)
}

// OnCheckoutFailed registers fn for failed checkouts. Returns a disposer.
func (s *CartStore) OnCheckoutFailed(fn func(error)) func() {
	return s.checkoutFailed.subscribe(fn)
}

// Close detaches the store from its feed. The feed itself stays open for
// other subscribers.
func (s *CartStore) Close() {
	for _, u := range s.unsubscribe {
		u()
	}
	s.unsubscribe = nil
}
