package api

import (
	"net/http"

	"github.com/stridelabs/sleuth/internal/logging"
	"github.com/stridelabs/sleuth/internal/service"
)

// ReportsHandler handles /api/v1/reports/last requests
type ReportsHandler struct {
	diagnostician *service.Diagnostician
	logger        *logging.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(diagnostician *service.Diagnostician, logger *logging.Logger) *ReportsHandler {
	return &ReportsHandler{
		diagnostician: diagnostician,
		logger:        logger,
	}
}

// Handle returns the most recent cached report for a user
func (h *ReportsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "user_id is required")
		return
	}

	report, ok := h.diagnostician.LastReport(userID)
	if !ok {
		writeAPIError(w, NewNotFoundError("no report found for user"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = writeJSON(w, report)
}
