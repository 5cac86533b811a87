package handlers

import (
	"net/http"

	"github.com/devenkapadia/custodia/pkg/custody/service"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// TransferHandler handles custody transfer endpoints.
type TransferHandler struct {
	store   store.Store
	service *service.Service
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(s store.Store, svc *service.Service) *TransferHandler {
	return &TransferHandler{store: s, service: svc}
}

// TransferRequest is the request body for POST /api/v1/transfer.
type TransferRequest struct {
	FileID   string `json:"file_id" validate:"required,uuid4"`
	ToUserID string `json:"to_user_id" validate:"required,uuid4"`
}

// Transfer handles POST /api/v1/transfer.
// Moves ownership of the file from the requester to the target user.
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	var req TransferRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	record, err := h.service.Transfer(r.Context(), user, req.FileID, req.ToUserID)
	if err != nil {
		writeDomainError(w, err, "Failed to transfer file")
		return
	}

	WriteJSONOK(w, recordToResponse(record))
}
