// Package feed bridges Postgres row-change notifications into the websocket
// hub. Triggers on cart_items and orders call pg_notify on the row_changes
// channel; a dedicated listener connection fans each payload out to the room
// matching the row's scope.
package feed

import (
	"github.com/google/uuid"
)

// Change operations, matching lower(TG_OP) from the notify trigger.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Watched tables.
const (
	TableCartItems = "cart_items"
	TableOrders    = "orders"
)

// Change is one row-level notification. It identifies the row and its scope
// but carries no row data: consumers re-fetch authoritative state instead of
// applying deltas.
type Change struct {
	Table        string    `json:"table"`
	Op           string    `json:"op"`
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TableNumber  string    `json:"table_number"`
}
