package handlers

import (
	"net/http"

	"github.com/devenkapadia/custodia/pkg/custody/service"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// RevokeHandler handles custody revoke endpoints.
type RevokeHandler struct {
	store   store.Store
	service *service.Service
}

// NewRevokeHandler creates a new RevokeHandler.
func NewRevokeHandler(s store.Store, svc *service.Service) *RevokeHandler {
	return &RevokeHandler{store: s, service: svc}
}

// RevokeRequest is the request body for POST /api/v1/revoke.
type RevokeRequest struct {
	FileID string `json:"file_id" validate:"required,uuid4"`
}

// ListRevocable handles GET /api/v1/revoke.
// Lists the files the requester may currently reclaim.
func (h *RevokeHandler) ListRevocable(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	records, err := h.service.ListRevocable(r.Context(), user)
	if err != nil {
		writeDomainError(w, err, "Failed to list revocable files")
		return
	}

	WriteJSONOK(w, recordsToResponse(records))
}

// Revoke handles POST /api/v1/revoke.
// Returns ownership of the file to the requester.
func (h *RevokeHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	var req RevokeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	record, err := h.service.Revoke(r.Context(), user, req.FileID)
	if err != nil {
		writeDomainError(w, err, "Failed to revoke file")
		return
	}

	WriteJSONOK(w, recordToResponse(record))
}
