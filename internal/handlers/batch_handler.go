package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/pipeline"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing;
// larger uploads spill to temp files.
const maxUploadMemory = 64 << 20

// BatchHandler accepts batch uploads and drives them through the
// orchestrator.
type BatchHandler struct {
	orchestrator interfaces.BatchOrchestrator
	logger       arbor.ILogger
}

// NewBatchHandler creates a batch handler.
func NewBatchHandler(orchestrator interfaces.BatchOrchestrator, logger arbor.ILogger) *BatchHandler {
	return &BatchHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// ProcessBatchHandler handles POST /api/process-batch: a multipart upload
// of PDF files plus a region query parameter, processed synchronously into
// a run manifest.
func (h *BatchHandler) ProcessBatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	region, files, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	manifest, err := h.orchestrator.ProcessBatch(r.Context(), files, region)
	if err != nil {
		h.logger.Error().Err(err).Msg("Batch processing failed")
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("batch processing failed: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, manifest)
}

// UploadBatchHandler handles POST /api/upload-batch: the same multipart
// upload, but only previews the job partition without touching disk or any
// provider.
func (h *BatchHandler) UploadBatchHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	region, files, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	summary := pipeline.Summarize(files)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"region":      region,
		"total_files": summary.TotalFiles,
		"total_jobs":  summary.TotalJobs,
		"jobs":        summary.Jobs,
	})
}

// parseUpload reads the region parameter and multipart files, rejecting
// invalid regions, empty uploads, and files that are not valid PDFs. On
// failure it writes the error response and returns ok=false.
func (h *BatchHandler) parseUpload(w http.ResponseWriter, r *http.Request) (models.Region, []models.FileUpload, bool) {
	region, err := models.ParseRegion(r.URL.Query().Get("region"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return "", nil, false
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart upload: %v", err))
		return "", nil, false
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		WriteError(w, http.StatusBadRequest, "no files uploaded: expected multipart field 'files'")
		return "", nil, false
	}

	files := make([]models.FileUpload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("failed to read uploaded file %s: %v", header.Filename, err))
			return "", nil, false
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			WriteError(w, http.StatusBadRequest, fmt.Sprintf("failed to read uploaded file %s: %v", header.Filename, err))
			return "", nil, false
		}

		if err := validatePDF(header.Filename, content); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return "", nil, false
		}

		files = append(files, models.FileUpload{
			Filename: header.Filename,
			Content:  content,
		})
	}

	return region, files, true
}

// validatePDF rejects uploads that are not PDF documents. Validation is
// relaxed: structurally imperfect but readable PDFs pass.
func validatePDF(filename string, content []byte) error {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return fmt.Errorf("file %s is not a PDF: only .pdf uploads are accepted", filename)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(content), conf); err != nil {
		return fmt.Errorf("file %s is not a valid PDF: %v", filename, err)
	}
	return nil
}
