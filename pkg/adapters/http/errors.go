package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/formtree/pkg/domain"
	"github.com/aretw0/formtree/pkg/schema"
	"github.com/aretw0/formtree/pkg/session"
)

// statusFor maps editor and store errors onto HTTP status codes.
func statusFor(err error) int {
	var validation *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrFormNotFound),
		errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrFormExists),
		errors.Is(err, domain.ErrPreviewActive),
		errors.Is(err, domain.ErrEditPending):
		return http.StatusConflict
	case errors.Is(err, domain.ErrParentNotFound),
		errors.Is(err, domain.ErrInvalidTarget),
		errors.Is(err, domain.ErrUnknownControlType),
		errors.Is(err, domain.ErrNotLeaf),
		errors.Is(err, domain.ErrNotContainer),
		errors.Is(err, domain.ErrNoPendingEdit),
		errors.Is(err, domain.ErrUnknownProperty),
		errors.Is(err, domain.ErrUnknownOption),
		errors.Is(err, domain.ErrInvalidDrop),
		errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
