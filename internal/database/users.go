package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getUserByEmail = `
SELECT id, email, password_hash, name, restaurant_id, role, created_at
FROM users
WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.RestaurantID, &u.Role, &u.CreatedAt)
	return u, err
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	// Zero value inserts NULL; the restaurant backfills it once created.
	RestaurantID pgtype.UUID
	Role         string
}

const createUser = `
INSERT INTO users (email, password_hash, name, restaurant_id, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, email, password_hash, name, restaurant_id, role, created_at
`

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Email, arg.PasswordHash, arg.Name, arg.RestaurantID, arg.Role)
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.RestaurantID, &u.Role, &u.CreatedAt)
	return u, err
}

type SetUserRestaurantParams struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
}

const setUserRestaurant = `
UPDATE users SET restaurant_id = $2 WHERE id = $1
`

func (q *Queries) SetUserRestaurant(ctx context.Context, arg SetUserRestaurantParams) error {
	_, err := q.db.Exec(ctx, setUserRestaurant, arg.ID, arg.RestaurantID)
	return err
}
