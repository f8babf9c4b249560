package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Restaurant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   pgtype.UUID
	LogoURL   pgtype.Text
	CreatedAt time.Time `json:"created_at"`
}

// MenuItemOption is one configurable option group on a menu item, stored as
// jsonb. When Required, a cart line must carry exactly one chosen value.
type MenuItemOption struct {
	Name     string   `json:"name"`
	Choices  []string `json:"choices"`
	Required bool     `json:"required,omitempty"`
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Category     string
	Name         string
	Price        pgtype.Numeric
	// Stock: -1 unlimited, 0 sold out, >0 finite count.
	Stock       int32
	Description pgtype.Text
	Options     []MenuItemOption
	ImageURL    pgtype.Text
	IsAvailable bool
	CreatedAt   time.Time
}

type CartItem struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	TableNumber     string
	MenuItemID      uuid.UUID
	Quantity        int32
	SelectedOptions map[string]string
	CreatedAt       time.Time
}

type Order struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	TableNumber  string
	Status       string
	TotalAmount  pgtype.Numeric
	Notes        pgtype.Text
	CreatedAt    time.Time
}

type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	MenuItemID      uuid.UUID
	Quantity        int32
	SelectedOptions map[string]string
	// UnitPrice is captured at order creation; later menu edits never touch it.
	UnitPrice pgtype.Numeric
}

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	RestaurantID pgtype.UUID
	Role         string
	CreatedAt    time.Time
}
