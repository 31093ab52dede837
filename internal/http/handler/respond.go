package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"voicenotes/internal/auth"
	"voicenotes/internal/domain"
	"voicenotes/internal/logger"

	"github.com/go-chi/chi/v5"
)

const (
	msgUnauthorized = "Unauthorized - You must be signed in"
	msgBadBody      = "Invalid request body"
	maxBodyBytes    = 1 << 20
)

// Provisioner maps a resolved identity to the internal user, creating it on first sight.
type Provisioner interface {
	Provision(ctx context.Context, externalID string) (*auth.User, error)
}

// resource names a record kind in error messages.
type resource struct {
	name  string // "note", used mid-sentence
	title string // "Note", used to start a sentence
}

var (
	noteRes    = resource{"note", "Note"}
	taskRes    = resource{"task", "Task"}
	lectureRes = resource{"lecture note", "Lecture note"}
	diaryRes   = resource{"diary entry", "Diary entry"}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDeleted(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// requireIdentity writes a 401 and returns false when nobody could be resolved.
func requireIdentity(w http.ResponseWriter, r *http.Request, msg string) (auth.Identity, bool) {
	id := auth.IdentityFromContext(r.Context())
	if !id.IsResolved() {
		writeError(w, http.StatusUnauthorized, msg)
		return auth.Unauthenticated, false
	}
	return id, true
}

// parseID reads the {id} path segment. Anything but a positive integer is a 400.
func parseID(w http.ResponseWriter, r *http.Request, res resource) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s ID", res.name))
		return 0, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgBadBody)
		return false
	}
	return true
}

// base carries what every resource handler needs.
type base struct {
	users Provisioner
	log   *slog.Logger
}

// provision resolves the internal user for ident. Failures are 500s.
func (b base) provision(w http.ResponseWriter, r *http.Request, ident auth.Identity, res resource, verb string) (*auth.User, bool) {
	u, err := b.users.Provision(r.Context(), ident.ExternalID)
	if err != nil {
		b.fail(w, r, err, res, verb)
		return nil, false
	}
	return u, true
}

// fail classifies err and writes the matching response. Unexpected errors
// are logged and answered with a generic message.
func (b base) fail(w http.ResponseWriter, r *http.Request, err error, res resource, verb string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, res.title+" not found")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden,
			fmt.Sprintf("Unauthorized - you do not have permission to %s this %s", verb, res.name))
	default:
		b.log.ErrorContext(r.Context(), "request failed",
			slog.String("resource", res.name),
			slog.String("op", verb),
			logger.Err(err),
		)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s %s", verb, res.name))
	}
}
