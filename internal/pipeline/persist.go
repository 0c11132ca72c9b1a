package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/scrutor/internal/models"
)

// CreateJobDir creates the directory for one job within a run.
func CreateJobDir(runPath, jobID string) (string, error) {
	jobPath := filepath.Join(runPath, "job_"+jobID)
	if err := os.MkdirAll(jobPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create job directory: %w", err)
	}
	return jobPath, nil
}

// savedBaseName strips the extension from the original filename and
// appends the classified type, e.g. "123_AWB.pdf" + air_waybill →
// "123_AWB_air_waybill".
func savedBaseName(originalFilename string, docType models.DocumentType) string {
	base := originalFilename
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base + "_" + string(docType)
}

// SavePDF writes a classified PDF into the job directory under its
// type-labeled name and returns the saved filename and full path.
func SavePDF(content []byte, originalFilename string, docType models.DocumentType, jobPath string) (string, string, error) {
	filename := savedBaseName(originalFilename, docType) + ".pdf"
	path := filepath.Join(jobPath, filename)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", "", fmt.Errorf("failed to save classified file %s: %w", filename, err)
	}
	return filename, path, nil
}

// SaveExtraction writes the extraction record as a pretty-printed JSON
// sibling of the classified PDF.
func SaveExtraction(record json.RawMessage, originalFilename string, docType models.DocumentType, jobPath string) (string, error) {
	filename := savedBaseName(originalFilename, docType) + ".json"
	path := filepath.Join(jobPath, filename)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, record, "", "  "); err != nil {
		return "", fmt.Errorf("extraction record is not valid JSON: %w", err)
	}
	if err := os.WriteFile(path, pretty.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save extraction JSON %s: %w", filename, err)
	}
	return filename, nil
}

// SaveValidation writes a job's validation document at the run root as
// job_{id}_validation_{REGION}.json and returns the filename. Downstream
// tooling globs *_validation_*.json, so the region suffix is part of the
// contract.
func SaveValidation(doc *models.ValidationDocument, runPath string) (string, error) {
	filename := fmt.Sprintf("job_%s_validation_%s.json", doc.JobID, doc.Region)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal validation document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runPath, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save validation JSON %s: %w", filename, err)
	}
	return filename, nil
}

// SaveTariffLines writes a job's extracted tariff lines at the run root as
// job_{id}_tariff_lines.json.
func SaveTariffLines(jobID string, lines []models.TariffLineItem, runPath string) (string, error) {
	filename := fmt.Sprintf("job_%s_tariff_lines.json", jobID)
	data, err := json.MarshalIndent(map[string]any{"line_items": lines}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tariff lines: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runPath, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save tariff lines %s: %w", filename, err)
	}
	return filename, nil
}
