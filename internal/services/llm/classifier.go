package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
)

const classifierSystemPrompt = `You are a customs document classification expert specializing in express shipments.

Your task is to analyze PDF documents and classify them into one of these categories:

1. **entry_print** - Customs entry/declaration form
   - Contains: Entry number, declarant details, line items with HS codes, customs values
   - Keywords: "Entry", "Declaration", "Customs", "Declarant", "HS Code", "Tariff"
   - Usually has tabular data with item descriptions and classifications

2. **air_waybill** - Air Waybill (AWB) document
   - Contains: AWB number, shipper/consignee details, weight, pieces, flight info
   - Keywords: "Air Waybill", "AWB", "Shipper", "Consignee", "Flight", "MAWB", "HAWB"
   - Typically shows tracking and shipping logistics

3. **commercial_invoice** - Commercial Invoice from supplier
   - Contains: Invoice number, supplier/buyer details, line items with prices, totals
   - Keywords: "Commercial Invoice", "Invoice", "Supplier", "Buyer", "Payment Terms", "Total Amount"
   - Shows pricing and payment information

4. **packing_list** - Packing list with item details
   - Contains: Package details, dimensions, weights, item quantities
   - Keywords: "Packing List", "Package", "Carton", "Dimensions", "Gross Weight"
   - Focus on physical packaging information

5. **other** - Any other document type
   - Use this for certificates, licenses, or unrecognizable documents

Based on the document content, classify it into the most appropriate category.`

// Classifier assigns one of the closed document types to a PDF. A call
// that still fails after the retry budget resolves to DocumentTypeOther
// with a warning record, never an error: one unreadable attachment must
// not sink the whole run.
type Classifier struct {
	provider Provider
	logger   arbor.ILogger
	config   common.LLMConfig
	retry    RetryConfig
}

// NewClassifier creates a document classifier on top of a provider.
func NewClassifier(provider Provider, cfg *common.Config, logger arbor.ILogger) *Classifier {
	retry := NewDefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxAttempts = cfg.LLM.MaxRetries
	}
	retry.InitialBackoff = cfg.LLM.InitialBackoffDuration()
	retry.MaxBackoff = cfg.LLM.MaxBackoffDuration()

	return &Classifier{
		provider: provider,
		logger:   logger,
		config:   cfg.LLM,
		retry:    retry,
	}
}

type classificationOutput struct {
	DocumentType string `json:"document_type"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// Classify determines the document type of one PDF.
func (c *Classifier) Classify(ctx context.Context, pdf []byte, filename string) (models.DocumentType, error) {
	prompt := fmt.Sprintf(`Analyze this PDF document and classify it.

Filename: %s

Determine what type of customs document this is based on the content.`, filename)

	req := GenerateRequest{
		Model:       c.config.ClassifyModel,
		System:      classifierSystemPrompt,
		Temperature: c.config.ClassifyTemperature,
		Schema:      ClassificationSchema(),
		Parts: []Part{
			TextPart(prompt),
			PDFPart("", pdf),
		},
	}

	var out classificationOutput
	err := c.retry.Do(ctx, c.logger, "classify", func(ctx context.Context) error {
		raw, err := c.provider.GenerateStructured(ctx, req)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return SchemaFault("classify", fmt.Errorf("unparseable classification response: %w", err))
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.DocumentTypeOther, ctx.Err()
		}
		c.logger.Warn().
			Str("filename", filename).
			Err(err).
			Msg("Classification failed after retries, filing as other")
		return models.DocumentTypeOther, nil
	}

	docType := models.ParseDocumentType(out.DocumentType)
	c.logger.Debug().
		Str("filename", filename).
		Str("document_type", string(docType)).
		Msg("Document classified")
	return docType, nil
}
