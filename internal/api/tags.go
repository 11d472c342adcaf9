package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// TagsHandler handles tag endpoints.
type TagsHandler struct {
	DB *sql.DB
}

type tagRequest struct {
	Name *string `json:"name"`
}

func validTagName(name string) string {
	switch {
	case name == "":
		return "name required"
	case len(name) > model.MaxTagNameLength:
		return "name too long"
	}
	return ""
}

// List handles GET /api/tags/. assigned_only=1 limits the result to tags
// used by at least one item.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	assignedOnly := false
	if v := r.URL.Query().Get("assigned_only"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "assigned_only must be 0 or 1")
			return
		}
		assignedOnly = n != 0
	}

	user := currentUser(r.Context())
	tags, err := store.ListTags(r.Context(), h.DB, user.ID, assignedOnly)
	if err != nil {
		slog.Error("failed to list tags", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	jsonResponse(w, http.StatusOK, tags)
}

// Create handles POST /api/tags/.
func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := ""
	if req.Name != nil {
		name = *req.Name
	}
	if msg := validTagName(name); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	tag, err := store.CreateTag(r.Context(), h.DB, currentUser(r.Context()).ID, name)
	if err != nil {
		slog.Error("failed to create tag", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create tag")
		return
	}
	jsonResponse(w, http.StatusCreated, tag)
}

func (h *TagsHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Tag {
	id, ok := pathID(w, r, "tag")
	if !ok {
		return nil
	}

	tag, err := store.GetTag(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get tag", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get tag")
		return nil
	}
	if tag == nil || !canAccess(currentUser(r.Context()), tag.UserID) {
		jsonError(w, http.StatusNotFound, "tag not found")
		return nil
	}
	return tag
}

// Get handles GET /api/tags/{id}/.
func (h *TagsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if tag := h.lookup(w, r); tag != nil {
		jsonResponse(w, http.StatusOK, tag)
	}
}

// Update handles PUT and PATCH /api/tags/{id}/.
func (h *TagsHandler) Update(w http.ResponseWriter, r *http.Request) {
	tag := h.lookup(w, r)
	if tag == nil {
		return
	}

	var req tagRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == nil {
		if r.Method == http.MethodPut {
			jsonError(w, http.StatusBadRequest, "name required")
			return
		}
		jsonResponse(w, http.StatusOK, tag)
		return
	}
	if msg := validTagName(*req.Name); msg != "" {
		jsonError(w, http.StatusBadRequest, msg)
		return
	}

	if err := store.UpdateTag(r.Context(), h.DB, tag.ID, *req.Name); err != nil {
		slog.Error("failed to update tag", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update tag")
		return
	}
	tag.Name = *req.Name
	jsonResponse(w, http.StatusOK, tag)
}

// Delete handles DELETE /api/tags/{id}/.
func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tag := h.lookup(w, r)
	if tag == nil {
		return
	}

	if err := store.DeleteTag(r.Context(), h.DB, tag.ID); err != nil {
		slog.Error("failed to delete tag", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete tag")
		return
	}
	noContent(w)
}
