package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/media"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// MaxUploadSize limits the image upload request body.
const MaxUploadSize = 5 << 20

// ItemsHandler handles item CRUD and image upload endpoints.
type ItemsHandler struct {
	DB    *sql.DB
	Media *media.Store
}

type tagRef struct {
	Name string `json:"name"`
}

// itemRequest is used for create, full and partial updates. Nil fields were
// absent from the payload.
type itemRequest struct {
	Title            *string     `json:"title"`
	Description      *string     `json:"description"`
	Status           *string     `json:"status"`
	Category         *string     `json:"category"`
	LocationLastSeen *string     `json:"location_last_seen"`
	DateLost         *model.Date `json:"date_lost"`
	Tags             *[]tagRef   `json:"tags"`
}

// itemDetail is the single-item representation, which adds the image URL.
type itemDetail struct {
	model.Item
	Image *string `json:"image"`
}

type imageResponse struct {
	ID    int64   `json:"id"`
	Image *string `json:"image"`
}

// apply copies the present fields onto item.
func (req *itemRequest) apply(item *model.Item) {
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Status != nil {
		item.Status = *req.Status
	}
	if req.Category != nil {
		item.Category = *req.Category
	}
	if req.LocationLastSeen != nil {
		item.LocationLastSeen = *req.LocationLastSeen
	}
	if req.DateLost != nil {
		item.DateLost = *req.DateLost
	}
}

// missingField returns the first required field absent from a full payload.
func (req *itemRequest) missingField() string {
	switch {
	case req.Title == nil:
		return "title"
	case req.Category == nil:
		return "category"
	case req.LocationLastSeen == nil:
		return "location_last_seen"
	case req.DateLost == nil:
		return "date_lost"
	}
	return ""
}

// tagNames validates the tag list and returns its names.
func (req *itemRequest) tagNames() ([]string, error) {
	if req.Tags == nil {
		return nil, nil
	}
	names := make([]string, 0, len(*req.Tags))
	for _, t := range *req.Tags {
		if t.Name == "" {
			return nil, errors.New("tag name required")
		}
		if len(t.Name) > model.MaxTagNameLength {
			return nil, errors.New("tag name too long")
		}
		names = append(names, t.Name)
	}
	return names, nil
}

func (h *ItemsHandler) detail(item *model.Item) itemDetail {
	d := itemDetail{Item: *item}
	if item.ImagePath != "" && h.Media != nil {
		url := h.Media.URL(item.ImagePath)
		d.Image = &url
	}
	return d
}

// List handles GET /api/items/.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	tagIDs, err := parseIDList(r.URL.Query().Get("tags"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "tags must be a comma-separated list of ids")
		return
	}

	user := currentUser(r.Context())
	items, err := store.ListItems(r.Context(), h.DB, user.ID, tagIDs)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items/.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if field := req.missingField(); field != "" {
		jsonError(w, http.StatusBadRequest, field+" required")
		return
	}
	tags, err := req.tagNames()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(r.Context())
	item := &model.Item{UserID: user.ID, Status: model.ItemStatusLost}
	req.apply(item)
	if err := item.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := store.CreateItem(r.Context(), h.DB, item, tags)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, h.detail(created))
}

// lookup loads the item named by the path and checks the caller may see it.
// It writes the error response and returns nil otherwise.
func (h *ItemsHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Item {
	id, ok := pathID(w, r, "item")
	if !ok {
		return nil
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil
	}
	if item == nil || !canAccess(currentUser(r.Context()), item.UserID) {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil
	}
	return item
}

// Get handles GET /api/items/{id}/.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item := h.lookup(w, r)
	if item == nil {
		return
	}
	jsonResponse(w, http.StatusOK, h.detail(item))
}

// Update handles PUT and PATCH /api/items/{id}/. PUT requires every
// required field; PATCH changes only the fields present. Tags are replaced
// when the payload has them.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item := h.lookup(w, r)
	if item == nil {
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if r.Method == http.MethodPut {
		if field := req.missingField(); field != "" {
			jsonError(w, http.StatusBadRequest, field+" required")
			return
		}
	}
	tags, err := req.tagNames()
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.apply(item)
	if err := item.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, item, tags, req.Tags != nil); err != nil {
		slog.Error("failed to update item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	updated, err := store.GetItem(r.Context(), h.DB, item.ID)
	if err != nil || updated == nil {
		reloadError(w, "item", item.ID, err)
		return
	}
	jsonResponse(w, http.StatusOK, h.detail(updated))
}

// Delete handles DELETE /api/items/{id}/.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item := h.lookup(w, r)
	if item == nil {
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, item.ID); err != nil {
		slog.Error("failed to delete item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	if h.Media != nil {
		if err := h.Media.Remove(item.ImagePath); err != nil {
			slog.Warn("failed to remove item image", "item_id", item.ID, "error", err)
		}
	}
	noContent(w)
}

// UploadImage handles POST /api/items/{id}/upload-image/.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	item := h.lookup(w, r)
	if item == nil {
		return
	}
	if h.Media == nil {
		jsonError(w, http.StatusInternalServerError, "image storage not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupported) {
			jsonError(w, http.StatusBadRequest, "upload a valid image: "+err.Error())
			return
		}
		jsonError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	rel := media.ItemImagePath(result.Ext)
	if err := h.Media.Save(rel, result.Data); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	previous, err := store.SetItemImage(r.Context(), h.DB, item.ID, rel)
	if err != nil {
		slog.Error("failed to set item image", "error", err)
		_ = h.Media.Remove(rel)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}
	if err := h.Media.Remove(previous); err != nil {
		slog.Warn("failed to remove previous item image", "item_id", item.ID, "error", err)
	}

	url := h.Media.URL(rel)
	jsonResponse(w, http.StatusOK, imageResponse{ID: item.ID, Image: &url})
}

// parseIDList parses a comma-separated list of integer ids. An empty string
// yields no ids.
func parseIDList(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
