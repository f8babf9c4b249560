package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mnw01/scan-order/internal/auth"
	"github.com/mnw01/scan-order/internal/database"
)

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (database.User, error)
}

// AuthHandler handles staff login.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string    `json:"token"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Role         string    `json:"role"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		log.Printf("ERROR: get user by email: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	if !user.RestaurantID.Valid {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "user has no restaurant"})
		return
	}
	restaurantID := uuid.UUID(user.RestaurantID.Bytes)

	token, err := auth.GenerateToken(h.jwtSecret, user.ID, restaurantID, user.Role)
	if err != nil {
		log.Printf("ERROR: generate token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:        token,
		UserID:       user.ID,
		Name:         user.Name,
		RestaurantID: restaurantID,
		Role:         user.Role,
	})
}
