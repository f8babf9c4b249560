// Package client is the Go counterpart of the browser sessions the service
// was built for: an HTTP/websocket client plus shared-state stores. CartStore
// and OrderQueueStore keep a local copy of remote rows, refresh it whenever
// the change feed reports a write from any session, and expose typed event
// subscriptions with disposers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope identifies one shared cart: one table at one restaurant.
type Scope struct {
	RestaurantID uuid.UUID
	TableNumber  string
}

// --- Wire types ---
//
// Money fields are decimal.Decimal; the server sends them as strings and
// shopspring's UnmarshalJSON accepts the quoted form directly.

type Restaurant struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	LogoURL *string   `json:"logo_url"`
}

type MenuOption struct {
	Name     string   `json:"name"`
	Choices  []string `json:"choices"`
	Required bool     `json:"required"`
}

type MenuItem struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Category     string          `json:"category"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int32           `json:"stock"`
	Description  *string         `json:"description"`
	Options      []MenuOption    `json:"options"`
	ImageURL     *string         `json:"image_url"`
	IsAvailable  bool            `json:"is_available"`
}

type CartLine struct {
	ID              uuid.UUID         `json:"id"`
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	TableNumber     string            `json:"table_number"`
	MenuItemID      uuid.UUID         `json:"menu_item_id"`
	Quantity        int32             `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
	CreatedAt       time.Time         `json:"created_at"`
	MenuItem        MenuItem          `json:"menu_item"`
}

type OrderItem struct {
	ID              uuid.UUID         `json:"id"`
	OrderID         uuid.UUID         `json:"order_id"`
	MenuItemID      uuid.UUID         `json:"menu_item_id"`
	Quantity        int32             `json:"quantity"`
	SelectedOptions map[string]string `json:"selected_options"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	MenuItem        MenuItem          `json:"menu_item"`
}

type Order struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	TableNumber  string          `json:"table_number"`
	Status       string          `json:"status"`
	StatusLabel  string          `json:"status_label"`
	ActionLabel  string          `json:"action_label"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        *string         `json:"notes"`
	CreatedAt    time.Time       `json:"created_at"`
	Items        []OrderItem     `json:"items"`
}

type ResolveResult struct {
	Restaurant Restaurant `json:"restaurant"`
	MenuItems  []MenuItem `json:"menu_items"`
	Categories []string   `json:"categories"`
}

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Client talks to the server's HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for the API at baseURL (scheme + host, no trailing
// slash).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken attaches a bearer token to subsequent requests. Required for the
// kitchen endpoints.
func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var envelope struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
			envelope.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: envelope.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Login exchanges credentials for a bearer token and attaches it to the
// client.
func (c *Client) Login(ctx context.Context, email, password string) (uuid.UUID, error) {
	var resp struct {
		Token        string    `json:"token"`
		RestaurantID uuid.UUID `json:"restaurant_id"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return uuid.Nil, err
	}
	c.token = resp.Token
	return resp.RestaurantID, nil
}

// Resolve looks up a restaurant by slug along with its available menu.
func (c *Client) Resolve(ctx context.Context, slug string) (*ResolveResult, error) {
	var out ResolveResult
	if err := c.do(ctx, http.MethodGet, "/r/"+slug, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func scopePath(scope Scope) string {
	return fmt.Sprintf("/restaurants/%s/tables/%s", scope.RestaurantID, scope.TableNumber)
}

// ListCart returns the scope's cart lines, oldest first.
func (c *Client) ListCart(ctx context.Context, scope Scope) ([]CartLine, error) {
	var out struct {
		Lines []CartLine `json:"lines"`
	}
	if err := c.do(ctx, http.MethodGet, scopePath(scope)+"/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.Lines, nil
}

// AddCartItem inserts a cart line. The server merges it into an existing line
// with the same menu item and options.
func (c *Client) AddCartItem(ctx context.Context, scope Scope, menuItemID uuid.UUID, quantity int32, selectedOptions map[string]string) (*CartLine, error) {
	var out CartLine
	err := c.do(ctx, http.MethodPost, scopePath(scope)+"/cart", map[string]interface{}{
		"menu_item_id":     menuItemID.String(),
		"quantity":         quantity,
		"selected_options": selectedOptions,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCartItemQuantity sets a line's quantity. A quantity <= 0 removes the
// line.
func (c *Client) UpdateCartItemQuantity(ctx context.Context, scope Scope, lineID uuid.UUID, quantity int32) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s/cart/%s", scopePath(scope), lineID),
		map[string]int32{"quantity": quantity}, nil)
}

// DeleteCartItem removes a line. Removing an absent line succeeds.
func (c *Client) DeleteCartItem(ctx context.Context, scope Scope, lineID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("%s/cart/%s", scopePath(scope), lineID), nil, nil)
}

// Checkout converts the scope's cart into an order and returns the order ID.
func (c *Client) Checkout(ctx context.Context, scope Scope, notes string) (uuid.UUID, error) {
	var out struct {
		OrderID uuid.UUID `json:"order_id"`
	}
	err := c.do(ctx, http.MethodPost, scopePath(scope)+"/checkout",
		map[string]string{"notes": notes}, &out)
	if err != nil {
		return uuid.Nil, err
	}
	return out.OrderID, nil
}

// ListActiveOrders returns the kitchen queue, newest first. Requires a token.
func (c *Client) ListActiveOrders(ctx context.Context, restaurantID uuid.UUID) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	path := fmt.Sprintf("/restaurants/%s/orders", restaurantID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// UpdateOrderStatus moves an order to the given status. Requires a token.
func (c *Client) UpdateOrderStatus(ctx context.Context, restaurantID, orderID uuid.UUID, status string) (*Order, error) {
	var out Order
	path := fmt.Sprintf("/restaurants/%s/orders/%s/status", restaurantID, orderID)
	if err := c.do(ctx, http.MethodPatch, path, map[string]string{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
