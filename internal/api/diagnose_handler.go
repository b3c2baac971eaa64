package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stridelabs/sleuth/internal/collect"
	"github.com/stridelabs/sleuth/internal/logging"
	"github.com/stridelabs/sleuth/internal/service"
)

// MaxRequestBody is the maximum allowed request body size (1 MB).
// A device snapshot is a few hundred bytes; anything near the limit is junk.
const MaxRequestBody = 1 * 1024 * 1024

// DiagnoseRequest represents the JSON body of a diagnosis request
type DiagnoseRequest struct {
	// UserID identifies whose pipeline is being diagnosed.
	UserID string `json:"user_id"`

	// ReferenceTime optionally replays the diagnosis as of a past moment.
	// Accepts Unix seconds, "now-<duration>" or a human-readable date.
	ReferenceTime string `json:"reference_time,omitempty"`

	// Snapshot is the raw device state captured by the app.
	Snapshot collect.Snapshot `json:"snapshot"`
}

// DiagnoseHandler handles /api/v1/diagnose requests
type DiagnoseHandler struct {
	diagnostician *service.Diagnostician
	logger        *logging.Logger
	tracer        trace.Tracer
}

// NewDiagnoseHandler creates a new diagnose handler
func NewDiagnoseHandler(diagnostician *service.Diagnostician, logger *logging.Logger, tracer trace.Tracer) *DiagnoseHandler {
	return &DiagnoseHandler{
		diagnostician: diagnostician,
		logger:        logger,
		tracer:        tracer,
	}
}

// Handle runs a diagnosis for the posted snapshot and returns the full report
func (h *DiagnoseHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "api.diagnose")
	defer span.End()

	// Parse request body with size limit
	limitedBody := io.LimitReader(r.Body, int64(MaxRequestBody))
	defer r.Body.Close()

	var req DiagnoseRequest
	decoder := json.NewDecoder(limitedBody)
	if err := decoder.Decode(&req); err != nil {
		h.logger.Warn("Failed to parse diagnose request: %v", err)
		if err == io.EOF {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidJSON, "Empty request body")
		} else {
			writeError(w, http.StatusBadRequest, ErrorCodeInvalidJSON, fmt.Sprintf("Failed to parse JSON: %v", err))
		}
		return
	}

	// Parse optional reference time for replayed diagnoses
	at, err := collect.ParseOptionalReferenceTime(req.ReferenceTime)
	if err != nil {
		h.logger.Warn("Invalid reference time %q: %v", req.ReferenceTime, err)
		writeError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, err.Error())
		return
	}

	report, err := h.diagnostician.Diagnose(ctx, req.UserID, req.Snapshot, at)
	if err != nil {
		apiErr := apiErrorFor(err)
		if apiErr.StatusCode >= http.StatusInternalServerError {
			h.logger.Error("Diagnosis failed: %v", err)
		} else {
			h.logger.Warn("Diagnosis rejected: %v", err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "diagnosis failed")
		writeAPIError(w, apiErr)
		return
	}

	span.SetAttributes(
		attribute.Bool("diagnosis.all_clear", report.Primary == nil),
		attribute.Int("diagnosis.issues", report.Metadata.IssuesEvaluated),
	)

	// Respond with the full report
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = writeJSON(w, report)

	h.logger.Debug("Diagnosis completed: issues=%d, links=%d, overall=%.3f",
		report.Metadata.IssuesEvaluated, report.Metadata.LinksFound, report.OverallConfidence)
}
