package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// AuthHandler handles registration, token and profile endpoints.
type AuthHandler struct {
	DB        *sql.DB
	JWTSecret string
	Limiter   *IPLimiter
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type profileResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

// Register handles POST /api/user/create/.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if err := model.ValidateEmail(req.Email); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Name, string(hash))
	if errors.Is(err, store.ErrEmailTaken) {
		jsonError(w, http.StatusConflict, "user with this email already exists")
		return
	}
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	jsonResponse(w, http.StatusCreated, profileResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}

// Token handles POST /api/user/token/.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow(r) {
		jsonError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || !user.IsActive {
		jsonError(w, http.StatusUnauthorized, "unable to authenticate with provided credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", user.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "unable to authenticate with provided credentials")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.ID, user.Email)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "staff", user.IsStaff)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}

// Me handles GET /api/user/me/.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, currentUser(r.Context()))
}

// UpdateMe handles PUT and PATCH /api/user/me/. PUT requires a name.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.Method == http.MethodPut && req.Name == nil {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Name != nil && *req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name may not be blank")
		return
	}
	if req.Password != nil {
		if err := model.ValidatePassword(*req.Password); err != nil {
			jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if req.Name != nil {
		if err := store.UpdateUserName(r.Context(), h.DB, user.ID, *req.Name); err != nil {
			slog.Error("failed to update user name", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			jsonError(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, string(hash)); err != nil {
			slog.Error("failed to update password", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update profile")
			return
		}
		slog.Info("user changed own password", "user_id", user.ID)
	}

	updated, err := store.GetUser(r.Context(), h.DB, user.ID)
	if err != nil || updated == nil {
		reloadError(w, "user", user.ID, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Logout handles POST /api/user/logout/ by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := tokenClaims(r.Context())

	expiresAt := time.Now().Add(auth.TokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to log out")
		return
	}

	slog.Info("user logged out", "user_id", claims.UserID)
	noContent(w)
}
