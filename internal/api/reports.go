package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pigeonworks-llc/finance-tables/pkg/datasets"
)

// defaultHistoryLimit is the number of mutations returned when no limit is given.
const defaultHistoryLimit = 50

// ReportsHandler handles the read-only aggregate endpoints.
type ReportsHandler struct {
	svc    *datasets.Service
	logger *slog.Logger
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(svc *datasets.Service, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{svc: svc, logger: logger}
}

// Balances handles GET /api/resumen/{dimension}.
// @Summary Balances per dimension member
// @Description Sum of movement amounts for each member of a dimension, sorted descending
// @Tags reports
// @Produce json
// @Param dimension path string true "Dimension dataset (cuentas, categorias, ...)"
// @Success 200 {object} summary.BalanceReport
// @Failure 400 {object} ErrorResponse
// @Router /resumen/{dimension} [get]
func (h *ReportsHandler) Balances(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Balances(r.Context(), chi.URLParam(r, "dimension"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Dashboard handles GET /api/dashboard.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var year int
	if s := r.URL.Query().Get("anio"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid anio")
			return
		}
		year = y
	}

	report, err := h.svc.Dashboard(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// History handles GET /api/historial.
func (h *ReportsHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil || l < 1 {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit")
			return
		}
		limit = l
	}

	mutations, err := h.svc.History(r.Context(), r.URL.Query().Get("dataset"), limit)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read mutation history", "error", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mutations)
}
