package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/service"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// RecordHandler handles file record endpoints.
type RecordHandler struct {
	store  store.Store
	access *service.Access
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(s store.Store, access *service.Access) *RecordHandler {
	return &RecordHandler{store: s, access: access}
}

// CreateRecordRequest is the request body for POST /api/v1/files.
// Records carry metadata only; raw file content is not stored here.
type CreateRecordRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// List handles GET /api/v1/files.
// Staff see all records; everyone else sees the records they own.
// The file_id query parameter is accepted for compatibility and behaves
// like GET /api/v1/files/{id}.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	if fileID := r.URL.Query().Get("file_id"); fileID != "" {
		h.getByID(w, r, user, fileID)
		return
	}

	records, err := h.access.VisibleRecords(r.Context(), user)
	if err != nil {
		InternalServerError(w, "Failed to list files")
		return
	}

	WriteJSONOK(w, recordsToResponse(records))
}

// Get handles GET /api/v1/files/{id}.
// Returns the record if the requester is its owner, staff, or a ledger
// participant.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}
	h.getByID(w, r, user, chi.URLParam(r, "id"))
}

func (h *RecordHandler) getByID(w http.ResponseWriter, r *http.Request, user *models.User, fileID string) {
	if _, err := uuid.Parse(fileID); err != nil {
		BadRequest(w, "Invalid file id")
		return
	}

	record, err := h.access.GetRecord(r.Context(), user, fileID)
	if err != nil {
		writeDomainError(w, err, "Failed to get file")
		return
	}

	WriteJSONOK(w, recordToResponse(record))
}

// Create handles POST /api/v1/files.
// Creates a record owned by the requester.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := requester(w, r, h.store)
	if !ok {
		return
	}

	var req CreateRecordRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	record := &models.Record{
		ID:        uuid.New().String(),
		Name:      req.Name,
		OwnerID:   user.ID,
		CreatedAt: time.Now(),
	}

	if _, err := h.store.CreateRecord(r.Context(), record); err != nil {
		writeDomainError(w, err, "Failed to create file")
		return
	}

	created, err := h.store.GetRecord(r.Context(), record.ID)
	if err != nil {
		InternalServerError(w, "Failed to load created file")
		return
	}

	WriteJSONCreated(w, recordToResponse(created))
}
