package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/devenkapadia/custodia/pkg/custody/api/middleware"
	"github.com/devenkapadia/custodia/pkg/custody/models"
	"github.com/devenkapadia/custodia/pkg/custody/store"
)

// validate checks request bodies against their struct tags. Shared across
// handlers; validator instances cache struct metadata and are safe for
// concurrent use.
var validate = validator.New()

// decodeJSONBody decodes and validates a JSON request body into v.
// Returns false if decoding or validation fails; the problem response has
// already been written.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		BadRequest(w, "Invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			BadRequest(w, fmt.Sprintf("Invalid field %q (%s)", verrs[0].Field(), verrs[0].Tag()))
			return false
		}
		BadRequest(w, "Invalid request body")
		return false
	}
	return true
}

// requester resolves the authenticated user from the request context,
// loading fresh account state so role and enabled changes take effect
// immediately rather than at token expiry. Returns false if the problem
// response has already been written.
func requester(w http.ResponseWriter, r *http.Request, users store.UserStore) (*models.User, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return nil, false
	}

	user, err := users.GetUser(r.Context(), claims.Username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			Unauthorized(w, "User not found")
			return nil, false
		}
		InternalServerError(w, "Failed to load user")
		return nil, false
	}

	if !user.Enabled {
		Forbidden(w, "User account is disabled")
		return nil, false
	}

	return user, true
}

// writeDomainError maps a custody domain error to its problem response.
// Unrecognized errors become 500 with the fallback detail.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		NotFound(w, "File not found")
	case errors.Is(err, models.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, models.ErrPermissionDenied):
		Forbidden(w, err.Error())
	case errors.Is(err, models.ErrConflict):
		Conflict(w, "Concurrent custody change, retry the request")
	case errors.Is(err, models.ErrDuplicateUser), errors.Is(err, models.ErrDuplicateRecord):
		Conflict(w, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		WriteProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "Request cancelled")
	default:
		InternalServerError(w, fallback)
	}
}
