// Package interfaces defines the service contracts the pipeline and HTTP
// layers depend on, keeping concrete LLM and filesystem implementations
// swappable in tests.
package interfaces

import (
	"context"
	"encoding/json"

	"github.com/ternarybob/scrutor/internal/models"
)

// DocumentClassifier assigns one of the closed document types to a PDF.
// Implementations must never return a type outside models.DocumentTypes;
// unrecoverable classification failures resolve to models.DocumentTypeOther.
type DocumentClassifier interface {
	Classify(ctx context.Context, pdf []byte, filename string) (models.DocumentType, error)
}

// DocumentExtractor pulls a structured record out of an extractable
// document. For non-extractable types and for extraction failures it
// returns (nil, nil): extraction is whole-record-or-nothing, never partial.
type DocumentExtractor interface {
	Extract(ctx context.Context, pdf []byte, docType models.DocumentType) (json.RawMessage, error)
}

// BatchValidator runs a region's checklist against a job's designated
// documents, keyed by document type.
type BatchValidator interface {
	Validate(ctx context.Context, region models.Region, jobID string, docs map[models.DocumentType][]byte) (*models.BatchValidationResult, error)
}

// ChecklistStore loads, caches, and atomically replaces per-region
// checklist configurations.
type ChecklistStore interface {
	Load(region models.Region) (*models.Checklist, error)
	Replace(region models.Region, content []byte) error
	Path(region models.Region) string
}

// TariffAgent suggests a tariff classification for one extracted line.
type TariffAgent interface {
	ClassifyLine(ctx context.Context, item models.TariffLineItem) (*models.TariffSuggestion, error)
}

// BatchOrchestrator drives a full run: partition, allocate, classify,
// extract, persist, validate, manifest.
type BatchOrchestrator interface {
	ProcessBatch(ctx context.Context, files []models.FileUpload, region models.Region) (*models.RunManifest, error)
}
