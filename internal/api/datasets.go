package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/finance-tables/pkg/catalog"
	"github.com/pigeonworks-llc/finance-tables/pkg/datasets"
	"github.com/pigeonworks-llc/finance-tables/pkg/records"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DatasetsHandler handles the record endpoints of every dataset.
type DatasetsHandler struct {
	svc    *datasets.Service
	logger *slog.Logger
}

// NewDatasetsHandler creates a new DatasetsHandler.
func NewDatasetsHandler(svc *datasets.Service, logger *slog.Logger) *DatasetsHandler {
	return &DatasetsHandler{svc: svc, logger: logger}
}

// MovementCreatedResponse is the response for POST /api/movimientos.
type MovementCreatedResponse struct {
	Message string `json:"message"`
	MovID   string `json:"mov_id"`
}

// MessageResponse is the response of the other mutations.
type MessageResponse struct {
	Message string `json:"message"`
}

// List handles GET /api/{dataset}.
// @Summary List records
// @Description Get every record of a dataset in file order
// @Tags datasets
// @Produce json
// @Param dataset path string true "Dataset name"
// @Success 200 {array} object
// @Failure 400 {object} ErrorResponse
// @Router /{dataset} [get]
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.List(r.Context(), chi.URLParam(r, "dataset"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// Create handles POST /api/{dataset}.
func (h *DatasetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	id, err := h.svc.Create(r.Context(), dataset, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if dataset == catalog.Movements {
		writeJSON(w, http.StatusCreated, MovementCreatedResponse{
			Message: "Movimiento creado exitosamente",
			MovID:   id,
		})
		return
	}
	writeJSON(w, http.StatusCreated, MessageResponse{Message: fmt.Sprintf("Registro creado en %s", dataset)})
}

// Update handles PUT /api/{dataset}/{id}.
func (h *DatasetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	fields, ok := h.decodeFields(w, r)
	if !ok {
		return
	}

	if err := h.svc.Update(r.Context(), dataset, chi.URLParam(r, "id"), fields); err != nil {
		h.fail(w, r, err)
		return
	}

	message := fmt.Sprintf("Registro actualizado en %s", dataset)
	if dataset == catalog.Movements {
		message = "Movimiento actualizado exitosamente"
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// Delete handles DELETE /api/{dataset}/{id}.
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	if _, err := h.svc.Delete(r.Context(), dataset, chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}

	message := fmt.Sprintf("Registro eliminado de %s", dataset)
	if dataset == catalog.Movements {
		message = "Movimiento eliminado exitosamente"
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: message})
}

// decodeFields reads a JSON object body. Numbers keep their literal text.
func (h *DatasetsHandler) decodeFields(w http.ResponseWriter, r *http.Request) (records.Fields, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil || body == nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return nil, false
	}

	fields, err := records.FieldsFromJSON(body)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return nil, false
	}
	return fields, true
}

func (h *DatasetsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WarnContext(r.Context(), "request failed",
		"method", r.Method, "path", r.URL.Path, "error", err)
	writeServiceError(w, err)
}
