package api

import (
	"net/http"

	"github.com/jewelpalace/storefront/internal/middleware"
	"github.com/jewelpalace/storefront/internal/models"
	"github.com/jewelpalace/storefront/internal/services"
)

// RegisterHandler handles POST /auth/register
func (a *App) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	user, session, err := a.userService.Register(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    services.ToAuthUser(user),
		"session": session,
	})
}

// TokenHandler handles POST /auth/v1/token (password grant)
func (a *App) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if grant := r.URL.Query().Get("grant_type"); grant != "" && grant != "password" {
		writeError(w, http.StatusBadRequest, "Unsupported grant type")
		return
	}

	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	_, session, err := a.userService.Login(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// CurrentUserHandler handles GET /auth/v1/user
func (a *App) CurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())
	writeJSON(w, http.StatusOK, services.ToAuthUser(user))
}

// UpdateProfileHandler handles PUT /auth/v1/user
func (a *App) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFrom(r.Context())

	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	updated, err := a.userService.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services.ToAuthUser(updated))
}

// CreateAdminHandler handles POST /admin/users
func (a *App) CreateAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, err)
		return
	}

	user, err := a.userService.CreateAdmin(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    services.ToAuthUser(user),
		"message": "Admin user created successfully",
	})
}
