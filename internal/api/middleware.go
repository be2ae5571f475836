package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/records"
	"github.com/pigeonworks-llc/finance-tables/pkg/table"
)

// CORSMiddleware allows cross-origin requests from any origin and answers
// preflight requests directly.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps an error returned by the dataset service to a
// status code and error code.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *records.ValidationError
	switch {
	case errors.Is(err, catalog.ErrInvalidDataset):
		writeJSONError(w, http.StatusBadRequest, "invalid_dataset", err.Error())
	case errors.As(err, &verr):
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", verr.Error())
	case errors.Is(err, records.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", "Registro no encontrado")
	case errors.Is(err, table.ErrPersistence):
		writeJSONError(w, http.StatusInternalServerError, "persistence_failure", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}
