package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/paintstock/internal/auth"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Resolver  *auth.Resolver
}

type loginResponse struct {
	Token string      `json:"token"`
	User  model.Actor `json:"user"`
}

// Login handles POST /api/auth/login. The body is {userName}; entering the
// admin secret as the name signs in as the admin.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name, err := stringField(obj, "userName")
	if err != nil || name == nil || strings.TrimSpace(*name) == "" {
		jsonError(w, http.StatusBadRequest, "userName required")
		return
	}

	actor := h.Resolver.Authenticate(*name)
	token, err := auth.GenerateToken(h.JWTSecret, actor)
	if err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("user signed in", "user", actor.DisplayName(), "role", actor.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token: token,
		User:  model.Actor{Name: actor.DisplayName(), Role: actor.Role},
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		serviceError(w, r, err)
		return
	}

	slog.Info("user signed out", "user", claims.Actor().DisplayName())
	jsonResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": model.FormatTime(time.Now()),
	})
}
