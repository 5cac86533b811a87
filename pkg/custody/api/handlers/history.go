package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/devenkapadia/custodia/pkg/custody/service"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// HistoryHandler handles ledger history endpoints.
type HistoryHandler struct {
	store  store.Store
	access *service.Access
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(s store.Store, access *service.Access) *HistoryHandler {
	return &HistoryHandler{store: s, access: access}
}

// All handles GET /api/v1/history.
// Staff see the full ledger; everyone else sees entries on files they own
// plus entries they participate in.
func (h *HistoryHandler) All(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	entries, err := h.access.AllHistory(r.Context(), user)
	if err != nil {
		writeDomainError(w, err, "Failed to list history")
		return
	}

	WriteJSONOK(w, entriesToResponse(entries))
}

// ForRecord handles GET /api/v1/files/{id}/history.
// Returns the file's ledger in append order, gated by view access.
func (h *HistoryHandler) ForRecord(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	fileID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(fileID); err != nil {
		BadRequest(w, "Invalid file id")
		return
	}

	entries, err := h.access.RecordHistory(r.Context(), user, fileID)
	if err != nil {
		writeDomainError(w, err, "Failed to get file history")
		return
	}

	WriteJSONOK(w, entriesToResponse(entries))
}
