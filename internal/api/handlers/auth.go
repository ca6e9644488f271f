package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mukisa/dukabook/internal/api/middleware"
	"github.com/mukisa/dukabook/internal/auth"
	"github.com/mukisa/dukabook/internal/domain"
	"github.com/mukisa/dukabook/internal/store"
)

// UserDirectory looks up owner accounts for login. Implemented by the sqlite
// store.
type UserDirectory interface {
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
}

// AuthHandler issues access tokens.
type AuthHandler struct {
	users  UserDirectory
	signer *auth.TokenSigner
	log    zerolog.Logger
}

func NewAuthHandler(users UserDirectory, signer *auth.TokenSigner, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{users: users, signer: signer, log: log}
}

// Login handles POST /api/auth/login.
// An unknown user and a wrong password get the same answer.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		middleware.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.signer.Sign(user)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to sign token")
		middleware.WriteError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":         token,
		"expires_in":    int(h.signer.TTL().Seconds()),
		"business_name": user.BusinessName,
		"currency":      user.Currency,
	})
}
