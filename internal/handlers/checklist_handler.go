package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

// maxChecklistBytes bounds a checklist upload body.
const maxChecklistBytes = 4 << 20

// ChecklistHandler serves and replaces per-region checklist
// configurations.
type ChecklistHandler struct {
	store  interfaces.ChecklistStore
	logger arbor.ILogger
}

// NewChecklistHandler creates a checklist handler.
func NewChecklistHandler(store interfaces.ChecklistStore, logger arbor.ILogger) *ChecklistHandler {
	return &ChecklistHandler{
		store:  store,
		logger: logger,
	}
}

// HandleChecklistRoutes routes /api/checklist/{region} requests.
func (h *ChecklistHandler) HandleChecklistRoutes(w http.ResponseWriter, r *http.Request) {
	regionPart := strings.TrimPrefix(r.URL.Path, "/api/checklist/")
	if regionPart == "" || strings.Contains(regionPart, "/") {
		WriteError(w, http.StatusNotFound, "expected /api/checklist/{region}")
		return
	}

	region, err := models.ParseRegion(regionPart)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case "GET":
		h.getChecklist(w, region)
	case "PUT":
		h.putChecklist(w, r, region)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ChecklistHandler) getChecklist(w http.ResponseWriter, region models.Region) {
	cl, err := h.store.Load(region)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("checklist not available: %v", err))
		return
	}
	WriteJSON(w, http.StatusOK, cl)
}

func (h *ChecklistHandler) putChecklist(w http.ResponseWriter, r *http.Request, region models.Region) {
	content, err := io.ReadAll(io.LimitReader(r.Body, maxChecklistBytes))
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return
	}

	if err := h.store.Replace(region, content); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("checklist rejected: %v", err))
		return
	}

	h.logger.Info().Str("region", string(region)).Msg("Checklist updated")
	WriteSuccess(w, fmt.Sprintf("checklist for region %s replaced", region))
}
