package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

const entryPrintExtractionPrompt = `You are an expert at extracting structured data from Australian Customs Entry Print documents.

Extract all fields accurately from the document following the schema provided.
Pay special attention to:
- Line items with tariff codes, quantities, and values
- Monetary values in both foreign currency and AUD
- Owner vs Supplier details (they are different)
- INVOICE PRICE vs CUSTOMS VALUE columns (extract from correct column)
- Origin/Pref codes: extract country code before slash, treatment code after slash`

const commercialInvoiceExtractionPrompt = `You are an expert at extracting structured data from Commercial Invoice documents.

Extract all fields accurately from the document following the schema provided.
Pay special attention to:
- Supplier is NEVER the importing-country entity - always foreign
- Incoterms should be 3-letter code (FOB, CIF, DDP, etc)
- Material number is NOT the HS/tariff code
- FOB amount is 'net value of goods', NOT invoice total
- Line items with quantities, prices, and country of origin`

// Extractor pulls a whole structured record out of an extractable
// document. Extraction is all-or-nothing: any failure, including a record
// that does not decode into the document's schema, yields a nil record
// and a warning, never a partial object and never a job failure.
type Extractor struct {
	provider Provider
	logger   arbor.ILogger
	config   common.LLMConfig
	retry    RetryConfig
}

// NewExtractor creates a document extractor on top of a provider.
func NewExtractor(provider Provider, cfg *common.Config, logger arbor.ILogger) *Extractor {
	retry := NewDefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxAttempts = cfg.LLM.MaxRetries
	}
	retry.InitialBackoff = cfg.LLM.InitialBackoffDuration()
	retry.MaxBackoff = cfg.LLM.MaxBackoffDuration()

	return &Extractor{
		provider: provider,
		logger:   logger,
		config:   cfg.LLM,
		retry:    retry,
	}
}

// Extract returns the structured record for an extractable document, or
// (nil, nil) for non-extractable types and for unrecoverable failures.
func (e *Extractor) Extract(ctx context.Context, pdf []byte, docType models.DocumentType) (json.RawMessage, error) {
	if !docType.Extractable() {
		return nil, nil
	}

	var (
		system string
		schema *genai.Schema
		label  string
	)
	switch docType {
	case models.DocumentTypeEntryPrint:
		system = entryPrintExtractionPrompt
		schema = EntryPrintSchema()
		label = "Customs Entry Print"
	case models.DocumentTypeCommercialInvoice:
		system = commercialInvoiceExtractionPrompt
		schema = CommercialInvoiceSchema()
		label = "Commercial Invoice"
	}

	req := GenerateRequest{
		Model:       e.config.ExtractModel,
		System:      system,
		Temperature: e.config.ClassifyTemperature,
		Schema:      schema,
		Parts: []Part{
			TextPart(fmt.Sprintf("Extract all data from this %s document.", label)),
			PDFPart("", pdf),
		},
	}

	var record json.RawMessage
	err := e.retry.Do(ctx, e.logger, "extract", func(ctx context.Context) error {
		raw, err := e.provider.GenerateStructured(ctx, req)
		if err != nil {
			return err
		}
		normalized, err := e.decode(docType, raw)
		if err != nil {
			return SchemaFault("extract", err)
		}
		record = normalized
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn().
			Str("document_type", string(docType)).
			Err(err).
			Msg("Extraction failed after retries, continuing without record")
		return nil, nil
	}

	return record, nil
}

// decode round-trips the raw response through the document's record type,
// rejecting structurally invalid output and normalizing field order.
func (e *Extractor) decode(docType models.DocumentType, raw []byte) (json.RawMessage, error) {
	switch docType {
	case models.DocumentTypeEntryPrint:
		var record models.EntryPrintExtraction
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("entry print record does not match schema: %w", err)
		}
		return json.Marshal(record)
	case models.DocumentTypeCommercialInvoice:
		var record models.CommercialInvoiceExtraction
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("commercial invoice record does not match schema: %w", err)
		}
		return json.Marshal(record)
	default:
		return nil, fmt.Errorf("no extraction schema for document type %q", docType)
	}
}
