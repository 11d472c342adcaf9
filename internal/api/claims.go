package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/events"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// ClaimsHandler handles claim endpoints.
type ClaimsHandler struct {
	DB     *sql.DB
	Events events.Publisher
}

// claimRequest names the item by id or by title; the id wins when both are
// present.
type claimRequest struct {
	ItemID      *int64  `json:"item_id"`
	Item        *string `json:"item"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (req *claimRequest) itemRef() store.ItemRef {
	var ref store.ItemRef
	if req.ItemID != nil {
		ref.ID = *req.ItemID
	}
	if req.Item != nil {
		ref.Title = *req.Item
	}
	return ref
}

// changesStatus reports whether the payload asks for a status.
func (req *claimRequest) changesStatus() bool {
	return req.Status != nil && *req.Status != ""
}

// itemRefError writes the response for an item reference that failed to
// resolve and reports whether err was handled.
func itemRefError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, store.ErrItemNotFound):
		jsonError(w, http.StatusBadRequest, "item does not exist")
	case errors.Is(err, store.ErrAmbiguousItem):
		jsonError(w, http.StatusBadRequest, "item title is ambiguous, use item_id")
	default:
		return false
	}
	return true
}

// List handles GET /api/claims/. Staff see every claim.
func (h *ClaimsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())

	var owner int64
	if !user.IsStaff {
		owner = user.ID
	}

	claims, err := store.ListClaims(r.Context(), h.DB, owner)
	if err != nil {
		slog.Error("failed to list claims", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list claims")
		return
	}
	if claims == nil {
		claims = []model.Claim{}
	}
	jsonResponse(w, http.StatusOK, claims)
}

// Create handles POST /api/claims/. The description is matched against all
// item descriptions and the best match replaces the requested item.
func (h *ClaimsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r.Context())

	status := model.ClaimStatusPending
	if req.changesStatus() {
		if !user.IsStaff && *req.Status != model.ClaimStatusPending {
			jsonError(w, http.StatusForbidden, "only staff can set claim status")
			return
		}
		status = *req.Status
	}
	if !model.ValidClaimStatus(status) {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	ref := req.itemRef()
	if ref.IsZero() {
		jsonError(w, http.StatusBadRequest, "item required")
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	claim, res, err := store.CreateClaim(r.Context(), h.DB, user.ID, ref, description, status)
	if err != nil {
		if itemRefError(w, err) {
			return
		}
		slog.Error("failed to create claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create claim")
		return
	}

	slog.Info("claim created", "claim_id", claim.ID, "item_id", claim.ItemID, "matched", res.Matched)
	events.Emit(r.Context(), h.Events, events.SubjectClaimCreated, events.ClaimCreated{
		ClaimID: claim.ID,
		UserID:  claim.UserID,
		ItemID:  claim.ItemID,
		Matched: res.Matched,
		Ratio:   res.Ratio,
	})
	jsonResponse(w, http.StatusCreated, claim)
}

func (h *ClaimsHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Claim {
	id, ok := pathID(w, r, "claim")
	if !ok {
		return nil
	}

	claim, err := store.GetClaim(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get claim")
		return nil
	}
	if claim == nil || !canAccess(currentUser(r.Context()), claim.UserID) {
		jsonError(w, http.StatusNotFound, "claim not found")
		return nil
	}
	return claim
}

// Get handles GET /api/claims/{id}/.
func (h *ClaimsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if claim := h.lookup(w, r); claim != nil {
		jsonResponse(w, http.StatusOK, claim)
	}
}

// Update handles PUT and PATCH /api/claims/{id}/. A payload carrying a status
// is refused for non-staff before the claim is looked up.
func (h *ClaimsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req claimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := currentUser(r.Context())
	if req.changesStatus() && !user.IsStaff {
		jsonError(w, http.StatusForbidden, "only staff can change claim status")
		return
	}

	claim := h.lookup(w, r)
	if claim == nil {
		return
	}

	ref := req.itemRef()
	if r.Method == http.MethodPut && ref.IsZero() {
		jsonError(w, http.StatusBadRequest, "item required")
		return
	}
	if !ref.IsZero() {
		itemID, err := store.ResolveItem(r.Context(), h.DB, ref)
		if err != nil {
			if itemRefError(w, err) {
				return
			}
			slog.Error("failed to resolve claim item", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to update claim")
			return
		}
		claim.ItemID = itemID
	}

	if req.Description != nil {
		claim.Description = *req.Description
	}

	oldStatus := claim.Status
	if req.changesStatus() {
		if !model.ValidClaimStatus(*req.Status) {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		claim.Status = *req.Status
	}

	if err := store.UpdateClaim(r.Context(), h.DB, claim); err != nil {
		slog.Error("failed to update claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update claim")
		return
	}

	if claim.Status != oldStatus {
		slog.Info("claim status changed", "claim_id", claim.ID, "by", user.ID, "from", oldStatus, "to", claim.Status)
		events.Emit(r.Context(), h.Events, events.SubjectClaimStatus, events.ClaimStatusChanged{
			ClaimID: claim.ID,
			UserID:  claim.UserID,
			Status:  claim.Status,
		})
	}

	updated, err := store.GetClaim(r.Context(), h.DB, claim.ID)
	if err != nil || updated == nil {
		reloadError(w, "claim", claim.ID, err)
		return
	}
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/claims/{id}/.
func (h *ClaimsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claim := h.lookup(w, r)
	if claim == nil {
		return
	}

	if err := store.DeleteClaim(r.Context(), h.DB, claim.ID); err != nil {
		slog.Error("failed to delete claim", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete claim")
		return
	}
	noContent(w)
}
