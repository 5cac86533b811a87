// Package handlers provides HTTP handlers for the custodia API.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/devenkapadia/custodia/pkg/custody/models"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusBadRequest, "Bad Request", detail)
}

// Unauthorized writes a 401 Unauthorized problem response.
func Unauthorized(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusUnauthorized, "Unauthorized", detail)
}

// Forbidden writes a 403 Forbidden problem response.
func Forbidden(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusForbidden, "Forbidden", detail)
}

// NotFound writes a 404 Not Found problem response.
func NotFound(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusNotFound, "Not Found", detail)
}

// Conflict writes a 409 Conflict problem response.
func Conflict(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusConflict, "Conflict", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// UserRef is the {id, username} pair used wherever a user appears in a
// response. Raw foreign-key values are never exposed.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RecordResponse is the API representation of a record.
type RecordResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     UserRef   `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// LedgerEntryResponse is the API representation of a ledger entry.
type LedgerEntryResponse struct {
	ID        uint           `json:"id"`
	File      RecordResponse `json:"file"`
	FromUser  UserRef        `json:"from_user"`
	ToUser    UserRef        `json:"to_user"`
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
}

func userRef(u *models.User) UserRef {
	if u == nil {
		return UserRef{}
	}
	return UserRef{ID: u.ID, Username: u.Username}
}

func recordToResponse(r *models.Record) RecordResponse {
	return RecordResponse{
		ID:        r.ID,
		Name:      r.Name,
		Owner:     userRef(r.Owner),
		CreatedAt: r.CreatedAt,
	}
}

func recordsToResponse(records []*models.Record) []RecordResponse {
	out := make([]RecordResponse, len(records))
	for i, r := range records {
		out[i] = recordToResponse(r)
	}
	return out
}

func entryToResponse(e *models.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:        e.ID,
		FromUser:  userRef(e.FromUser),
		ToUser:    userRef(e.ToUser),
		Action:    e.Action,
		Timestamp: e.Timestamp,
	}
	if e.Record != nil {
		resp.File = recordToResponse(e.Record)
	}
	return resp
}

func entriesToResponse(entries []*models.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = entryToResponse(e)
	}
	return out
}
