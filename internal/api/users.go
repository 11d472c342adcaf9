package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// UsersHandler handles account administration endpoints (superuser only).
type UsersHandler struct {
	DB *sql.DB
}

type adminUpdateUserRequest struct {
	IsStaff  *bool   `json:"is_staff"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

// RequireSuperuser rejects callers without superuser rights.
func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r.Context())
		if user == nil {
			jsonError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if !user.IsSuperuser {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/users/.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list users", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	jsonResponse(w, http.StatusOK, users)
}

// Update handles PATCH /api/users/{id}/: staff and active flags and
// password resets.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	var req adminUpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	caller := currentUser(r.Context())
	if caller.ID == id && ((req.IsStaff != nil && !*req.IsStaff) || (req.IsActive != nil && !*req.IsActive)) {
		jsonError(w, http.StatusBadRequest, "cannot demote or deactivate yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	var hash []byte
	if req.Password != nil {
		if err := model.ValidatePassword(*req.Password); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		if hash, err = bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost); err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
	}

	if req.IsStaff != nil {
		if err := store.SetUserStaff(r.Context(), h.DB, id, *req.IsStaff); err != nil {
			slog.Error("failed to update staff flag", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
	}
	if req.IsActive != nil {
		if err := store.SetUserActive(r.Context(), h.DB, id, *req.IsActive); err != nil {
			slog.Error("failed to update active flag", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
	}
	if hash != nil {
		if err := store.UpdateUserPassword(r.Context(), h.DB, id, string(hash)); err != nil {
			slog.Error("failed to reset password", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
	}

	updated, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil || updated == nil {
		reloadError(w, "user", id, err)
		return
	}

	slog.Info("user updated", "by", caller.ID, "target_user", id,
		"staff", updated.IsStaff, "active", updated.IsActive, "password_reset", hash != nil)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/users/{id}/.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	caller := currentUser(r.Context())
	if caller.ID == id {
		jsonError(w, http.StatusBadRequest, "cannot delete yourself")
		return
	}

	target, err := store.GetUser(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	if target == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id); err != nil {
		slog.Error("failed to delete user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	slog.Info("user deleted", "by", caller.ID, "deleted_user", target.Email)
	noContent(w)
}
