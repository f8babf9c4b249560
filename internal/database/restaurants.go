package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getRestaurantBySlug = `
SELECT id, name, slug, owner_id, logo_url, created_at
FROM restaurants
WHERE slug = $1
`

func (q *Queries) GetRestaurantBySlug(ctx context.Context, slug string) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurantBySlug, slug)
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.OwnerID, &r.LogoURL, &r.CreatedAt)
	return r, err
}

const getRestaurant = `
SELECT id, name, slug, owner_id, logo_url, created_at
FROM restaurants
WHERE id = $1
`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	row := q.db.QueryRow(ctx, getRestaurant, id)
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.OwnerID, &r.LogoURL, &r.CreatedAt)
	return r, err
}

type CreateRestaurantParams struct {
	Name    string
	Slug    string
	OwnerID uuid.UUID
}

const createRestaurant = `
INSERT INTO restaurants (name, slug, owner_id)
VALUES ($1, $2, $3)
RETURNING id, name, slug, owner_id, logo_url, created_at
`

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, createRestaurant, arg.Name, arg.Slug, arg.OwnerID)
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.OwnerID, &r.LogoURL, &r.CreatedAt)
	return r, err
}

type UpdateRestaurantParams struct {
	ID      uuid.UUID
	Name    string
	LogoURL pgtype.Text
}

const updateRestaurant = `
UPDATE restaurants
SET name = $2, logo_url = $3
WHERE id = $1
RETURNING id, name, slug, owner_id, logo_url, created_at
`

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	row := q.db.QueryRow(ctx, updateRestaurant, arg.ID, arg.Name, arg.LogoURL)
	var r Restaurant
	err := row.Scan(&r.ID, &r.Name, &r.Slug, &r.OwnerID, &r.LogoURL, &r.CreatedAt)
	return r, err
}
