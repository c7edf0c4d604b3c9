package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/api/shared"
	"github.com/phrazzld/taskpulse-api/internal/domain"
)

// Paging bounds for list endpoints.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// principalFromRequest returns the caller stored by the auth middleware.
func principalFromRequest(r *http.Request) (domain.Principal, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok || p.UserID == uuid.Nil {
		return domain.Principal{}, false
	}
	return p, true
}

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requirePrincipal writes a 401 and returns false when the request is not
// authenticated.
func requirePrincipal(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Principal, bool) {
	p, ok := principalFromRequest(r)
	if !ok {
		log.Warn("principal not found in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return domain.Principal{}, false
	}
	return p, true
}

// handlePrincipalAndPathUUID extracts the caller and a UUID path parameter,
// writing the error response itself when either is missing.
func handlePrincipalAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
	log *slog.Logger,
) (domain.Principal, uuid.UUID, bool) {
	p, ok := requirePrincipal(w, r, log)
	if !ok {
		return domain.Principal{}, uuid.Nil, false
	}

	id, err := getPathUUID(r, paramName)
	if err != nil {
		log.Debug("invalid path parameter", "param", paramName, "value", chi.URLParam(r, paramName))
		HandleAPIError(w, r, err, "")
		return domain.Principal{}, uuid.Nil, false
	}
	return p, id, true
}

// parsePaging reads limit and offset query parameters. A missing limit
// defaults to DefaultPageLimit; limits above MaxPageLimit are clamped.
func parsePaging(r *http.Request) (limit, offset int, err error) {
	limit = DefaultPageLimit
	q := r.URL.Query()

	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, domain.NewValidationError("limit", "must be a positive integer", domain.ErrValidation)
		}
		limit = min(limit, MaxPageLimit)
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, domain.NewValidationError("offset", "must be a non-negative integer", domain.ErrValidation)
		}
	}
	return limit, offset, nil
}
