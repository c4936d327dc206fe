// Package http implements the Remote API over chi.
package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/middleware"
	"github.com/atinyakov/Perseverance/internal/models"
	"github.com/atinyakov/Perseverance/internal/service"
)

// AuthService defines the account operations required by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (models.AuthResponse, error)
	Login(ctx context.Context, in service.LoginInput) (models.AuthResponse, error)
	Me(ctx context.Context, userID string) (models.User, error)
	UpdateSettings(ctx context.Context, userID string, patch json.RawMessage) (models.User, error)
}

// AuthHandler handles registration, login and the current account.
type AuthHandler struct {
	AuthService AuthService
	Log         *zap.Logger
}

// Register handles POST /api/auth/register. It answers 201 with the new
// user and a bearer token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.AuthService.Register(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login. Bad credentials give 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.AuthService.Login(r.Context(), req)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateSettings handles PUT /api/auth/settings with a partial settings object.
func (h *AuthHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch json.RawMessage
	if !decode(w, r, &patch) {
		return
	}
	u, err := h.AuthService.UpdateSettings(r.Context(), middleware.GetUserIDFromContext(r.Context()), patch)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
