package api

import (
	"net/http"

	"github.com/stridelabs/sleuth/internal/issue"
	"github.com/stridelabs/sleuth/internal/logging"
)

// KindEntry describes one issue kind in the catalog response
type KindEntry struct {
	Kind          issue.Kind `json:"kind"`
	Criticality   float64    `json:"criticality"`
	Actionability float64    `json:"actionability"`
	Impact        string     `json:"impact"`
}

// KindsResponse is the response body for the issue kind catalog
type KindsResponse struct {
	Kinds []KindEntry `json:"kinds"`
	Count int         `json:"count"`
}

// KindsHandler handles /api/v1/kinds requests
type KindsHandler struct {
	logger *logging.Logger
}

// NewKindsHandler creates a new kinds handler
func NewKindsHandler(logger *logging.Logger) *KindsHandler {
	return &KindsHandler{logger: logger}
}

// Handle lists every known issue kind with its fixed scoring attributes
func (h *KindsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	kinds := issue.AllKinds()
	entries := make([]KindEntry, 0, len(kinds))
	for _, k := range kinds {
		entries = append(entries, KindEntry{
			Kind:          k,
			Criticality:   issue.Criticality(k),
			Actionability: issue.Actionability(k),
			Impact:        issue.Impact(k),
		})
	}

	response := KindsResponse{
		Kinds: entries,
		Count: len(entries),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = writeJSON(w, response)
}
