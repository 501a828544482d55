package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/ledgerpilot/ledgerpilot/internal/agent"
	"github.com/ledgerpilot/ledgerpilot/internal/ingest"
	"github.com/ledgerpilot/ledgerpilot/internal/invoice"
	"github.com/ledgerpilot/ledgerpilot/internal/transaction"
)

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps domain errors onto HTTP statuses. Stage-scoped agent
// failures never reach here; they ride inside batch reports. An agent error
// surfacing as a request error means the request itself could not complete.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound), errors.Is(err, invoice.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, transaction.ErrValidation), errors.Is(err, invoice.ErrValidation),
		errors.Is(err, ingest.ErrInvalidFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrUnsupportedType):
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
	case errors.Is(err, transaction.ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, agent.ErrUnavailable), errors.Is(err, agent.ErrProtocol):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// MediaTypeOf inspects an uploaded part. Content type wins; the filename
// extension is the fallback for clients that send application/octet-stream.
func MediaTypeOf(header *multipart.FileHeader) (ingest.MediaType, bool) {
	contentType := header.Header.Get("Content-Type")

	switch {
	case strings.Contains(contentType, "csv"):
		return ingest.MediaCSV, true
	case strings.Contains(contentType, "json"):
		return ingest.MediaJSON, true
	}

	switch {
	case strings.HasSuffix(strings.ToLower(header.Filename), ".csv"):
		return ingest.MediaCSV, true
	case strings.HasSuffix(strings.ToLower(header.Filename), ".json"):
		return ingest.MediaJSON, true
	}

	return "", false
}
