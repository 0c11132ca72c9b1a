// Package validation runs a region's audit checklist against a job's
// designated documents with batched LLM calls, plus optional per-line
// tariff classification checks.
package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/services/llm"
)

// Service validates one job's document bundle. Header and valuation
// categories each get one batched provider call, issued concurrently; the
// optional tariff pass runs only after both succeed.
type Service struct {
	provider   llm.Provider
	checklists interfaces.ChecklistStore
	tariff     interfaces.TariffAgent
	logger     arbor.ILogger
	config     common.LLMConfig
	retry      llm.RetryConfig

	tariffChecks bool
}

// NewService creates a batch validator. tariffAgent may be nil when tariff
// checks are disabled.
func NewService(provider llm.Provider, checklists interfaces.ChecklistStore, tariffAgent interfaces.TariffAgent, cfg *common.Config, logger arbor.ILogger) *Service {
	retry := llm.NewDefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxAttempts = cfg.LLM.MaxRetries
	}
	retry.InitialBackoff = cfg.LLM.InitialBackoffDuration()
	retry.MaxBackoff = cfg.LLM.MaxBackoffDuration()

	return &Service{
		provider:     provider,
		checklists:   checklists,
		tariff:       tariffAgent,
		logger:       logger,
		config:       cfg.LLM,
		retry:        retry,
		tariffChecks: cfg.Validation.TariffChecks,
	}
}

type batchOutput struct {
	Validations []models.Verdict `json:"validations"`
}

type tariffLinesOutput struct {
	LineItems []models.TariffLineItem `json:"line_items"`
}

// Validate runs the full checklist for one job.
func (s *Service) Validate(ctx context.Context, region models.Region, jobID string, docs map[models.DocumentType][]byte) (*models.BatchValidationResult, error) {
	if len(docs[models.DocumentTypeEntryPrint]) == 0 {
		return nil, fmt.Errorf("job %s: validation requires an entry print document", jobID)
	}
	if len(docs[models.DocumentTypeCommercialInvoice]) == 0 {
		return nil, fmt.Errorf("job %s: validation requires a commercial invoice document", jobID)
	}

	checklist, err := s.checklists.Load(region)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}

	var header, valuation []models.Verdict
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		header, err = s.validateCategory(gctx, jobID, models.CategoryHeader, checklist.HeaderChecks(), checklist.NumericTolerance, docs)
		return err
	})
	g.Go(func() error {
		var err error
		valuation, err = s.validateCategory(gctx, jobID, models.CategoryValuation, checklist.ValuationChecks(), checklist.NumericTolerance, docs)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.BatchValidationResult{
		Header:    header,
		Valuation: valuation,
		Summary:   models.Summarize(header, valuation),
	}

	// Tariff line checks are best-effort: a failure here is logged and the
	// header/valuation results still stand.
	if s.tariffChecks && region == models.RegionAU && s.tariff != nil {
		lines, lineVerdicts, err := s.runTariffChecks(ctx, jobID, checklist.NumericTolerance, docs)
		if err != nil {
			s.logger.Warn().Str("job_id", jobID).Err(err).Msg("Tariff line checks failed, continuing without them")
		} else if len(lineVerdicts) > 0 {
			result.TariffLineChecks = lineVerdicts
			result.TariffLines = lines
			summary := summarizeLines(lineVerdicts)
			result.TariffSummary = &summary
		}
	}

	return result, nil
}

// validateCategory issues one batched call for a category's checks and
// enforces the one-verdict-per-check contract.
func (s *Service) validateCategory(ctx context.Context, jobID, category string, checks []models.Check, tolerance float64, docs map[models.DocumentType][]byte) ([]models.Verdict, error) {
	if len(checks) == 0 {
		s.logger.Debug().Str("job_id", jobID).Str("category", category).Msg("No checks in category, skipping call")
		return []models.Verdict{}, nil
	}

	parts := []llm.Part{llm.TextPart(buildBatchPrompt(checks, tolerance))}
	for _, docType := range attachmentOrder {
		if pdf := docs[docType]; len(pdf) > 0 {
			parts = append(parts, llm.PDFPart(fmt.Sprintf("\n**%s**:\n", documentLabels[docType]), pdf))
		}
	}

	req := llm.GenerateRequest{
		Model:          s.config.ValidateModel,
		System:         validatorSystemPrompt,
		Temperature:    s.config.ValidateTemperature,
		ThinkingBudget: int32(s.config.ThinkingBudget),
		Schema:         llm.ValidationSchema(),
		Parts:          parts,
	}

	var out batchOutput
	err := s.retry.Do(ctx, s.logger, "validate."+category, func(ctx context.Context) error {
		raw, err := s.provider.GenerateStructured(ctx, req)
		if err != nil {
			return err
		}
		out = batchOutput{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return llm.SchemaFault("validate."+category, fmt.Errorf("unparseable validation response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("job %s: %s validation failed: %w", jobID, category, err)
	}

	if len(out.Validations) != len(checks) {
		return nil, llm.SchemaFault("validate."+category,
			fmt.Errorf("job %s: expected %d verdicts, got %d", jobID, len(checks), len(out.Validations)))
	}

	for i := range out.Validations {
		v := &out.Validations[i]
		if v.Status != models.StatusNotApplicable {
			if strings.TrimSpace(v.SourceValue) == "" {
				v.SourceValue = "NOT FOUND"
			}
			if strings.TrimSpace(v.TargetValue) == "" {
				v.TargetValue = "NOT FOUND"
			}
		}
	}

	s.logger.Info().
		Str("job_id", jobID).
		Str("category", category).
		Int("checks", len(checks)).
		Msg("Category validated")
	return out.Validations, nil
}

// runTariffChecks extracts matched invoice/entry lines and classifies each
// one through the tariff agent.
func (s *Service) runTariffChecks(ctx context.Context, jobID string, tolerance float64, docs map[models.DocumentType][]byte) ([]models.TariffLineItem, []models.LineVerdict, error) {
	lines, err := s.extractTariffLines(ctx, jobID, docs)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, nil
	}

	verdicts := make([]models.LineVerdict, 0, len(lines))
	for _, line := range lines {
		suggestion, err := s.tariff.ClassifyLine(ctx, line)
		if err != nil {
			s.logger.Warn().
				Str("job_id", jobID).
				Int("line", line.LineNumber).
				Err(err).
				Msg("Tariff classification failed for line")
			suggestion = nil
		}
		verdicts = append(verdicts, buildLineVerdict(line, suggestion, tolerance))
	}
	return lines, verdicts, nil
}

// extractTariffLines issues the line-matching call over the invoice and
// entry print PDFs.
func (s *Service) extractTariffLines(ctx context.Context, jobID string, docs map[models.DocumentType][]byte) ([]models.TariffLineItem, error) {
	parts := []llm.Part{
		llm.TextPart("Extract and match ALL line items from the two attached documents."),
		llm.PDFPart(fmt.Sprintf("\n**%s**:\n", documentLabels[models.DocumentTypeCommercialInvoice]), docs[models.DocumentTypeCommercialInvoice]),
		llm.PDFPart(fmt.Sprintf("\n**%s**:\n", documentLabels[models.DocumentTypeEntryPrint]), docs[models.DocumentTypeEntryPrint]),
	}

	req := llm.GenerateRequest{
		Model:       s.config.ValidateModel,
		System:      tariffExtractionPrompt,
		Temperature: s.config.ValidateTemperature,
		Schema:      llm.TariffLinesSchema(),
		Parts:       parts,
	}

	var out tariffLinesOutput
	err := s.retry.Do(ctx, s.logger, "tariff.extract", func(ctx context.Context) error {
		raw, err := s.provider.GenerateStructured(ctx, req)
		if err != nil {
			return err
		}
		out = tariffLinesOutput{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return llm.SchemaFault("tariff.extract", fmt.Errorf("unparseable line extraction response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("job %s: tariff line extraction failed: %w", jobID, err)
	}

	s.logger.Info().
		Str("job_id", jobID).
		Int("lines", len(out.LineItems)).
		Msg("Tariff lines extracted")
	return out.LineItems, nil
}

// buildLineVerdict derives the four per-line checks and the worst-of-four
// overall status. A nil suggestion marks the classification check
// QUESTIONABLE rather than guessing.
func buildLineVerdict(line models.TariffLineItem, suggestion *models.TariffSuggestion, tolerance float64) models.LineVerdict {
	v := models.LineVerdict{
		LineNumber:          line.LineNumber,
		Description:         line.Description,
		ExtractedTariffCode: line.TariffCode,
		ExtractedStatCode:   line.StatCode,
		ClaimedConcession:   line.ConcessionBylaw,
		InvoiceQuantity:     line.InvoiceQuantity,
		EntryPrintQuantity:  line.EntryPrintQuantity,
		GSTExemptionClaimed: line.GSTExemption,
	}

	// Tariff classification: exact code agreement passes, a shared heading
	// needs review, disagreement fails.
	if suggestion == nil {
		v.TariffClassificationStatus = models.StatusQuestionable
		v.TariffClassificationAssessment = "No classification suggestion available; manual review required."
	} else {
		v.SuggestedTariffCode = suggestion.TariffCode
		v.SuggestedStatCode = suggestion.StatCode
		v.OtherSuggestedCodes = suggestion.OtherSuggestedCodes
		v.ConcessionLink = suggestion.ConcessionLink

		extracted := digitsOnly(line.TariffCode)
		suggested := digitsOnly(suggestion.TariffCode)
		switch {
		case extracted != "" && extracted == suggested && digitsOnly(line.StatCode) == digitsOnly(suggestion.StatCode):
			v.TariffClassificationStatus = models.StatusPass
			v.TariffClassificationAssessment = fmt.Sprintf("Declared code %s matches suggested classification. %s", line.FullCode, suggestion.Reasoning)
		case extracted != "" && extracted == suggested:
			v.TariffClassificationStatus = models.StatusQuestionable
			v.TariffClassificationAssessment = fmt.Sprintf("Tariff code %s matches but statistical code differs (declared %s, suggested %s).", line.TariffCode, line.StatCode, suggestion.StatCode)
		case len(extracted) >= 6 && len(suggested) >= 6 && extracted[:6] == suggested[:6]:
			v.TariffClassificationStatus = models.StatusQuestionable
			v.TariffClassificationAssessment = fmt.Sprintf("Declared %s and suggested %s share a heading but diverge at the subheading level. %s", line.TariffCode, suggestion.TariffCode, suggestion.Reasoning)
		default:
			v.TariffClassificationStatus = models.StatusFail
			v.TariffClassificationAssessment = fmt.Sprintf("Declared %s disagrees with suggested %s. %s", line.TariffCode, suggestion.TariffCode, suggestion.Reasoning)
		}
	}

	// Concession: only assessed when one is claimed.
	switch {
	case strings.TrimSpace(line.ConcessionBylaw) == "":
		v.ConcessionStatus = models.StatusNotApplicable
		v.ConcessionAssessment = "No concession or by-law claimed."
	case v.ConcessionLink != "":
		v.ConcessionStatus = models.StatusPass
		v.ConcessionAssessment = fmt.Sprintf("Claimed concession %s has a matching reference: %s", line.ConcessionBylaw, v.ConcessionLink)
	default:
		v.ConcessionStatus = models.StatusQuestionable
		v.ConcessionAssessment = fmt.Sprintf("Concession %s claimed but no supporting reference was found; manual review required.", line.ConcessionBylaw)
	}

	// Quantity: numeric comparison within the checklist tolerance.
	v.QuantityStatus, v.QuantityAssessment = compareQuantities(line.InvoiceQuantity, line.EntryPrintQuantity, tolerance)

	// GST exemption claims always need a human decision.
	if line.GSTExemption {
		v.GSTExemptionStatus = models.StatusQuestionable
		v.GSTExemptionAssessment = "GST exemption claimed on entry print; verify eligibility."
	} else {
		v.GSTExemptionStatus = models.StatusNotApplicable
		v.GSTExemptionAssessment = "No GST exemption claimed."
	}

	v.OverallStatus = v.Overall()
	return v
}

var leadingNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// parseQuantity pulls the numeric part out of a quantity string like
// "5 PCS" or "10.5 KG".
func parseQuantity(s string) (float64, bool) {
	match := leadingNumber.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func compareQuantities(invoice, entry string, tolerance float64) (models.CheckStatus, string) {
	invoiceEmpty := strings.TrimSpace(invoice) == "" || strings.EqualFold(strings.TrimSpace(invoice), "NOT FOUND")
	entryEmpty := strings.TrimSpace(entry) == "" || strings.EqualFold(strings.TrimSpace(entry), "NOT FOUND")
	if invoiceEmpty && entryEmpty {
		return models.StatusNotApplicable, "No quantity stated on either document."
	}

	invQty, invOK := parseQuantity(invoice)
	entQty, entOK := parseQuantity(entry)
	if !invOK || !entOK {
		return models.StatusQuestionable, fmt.Sprintf("Quantity could not be compared (invoice %q, entry print %q).", invoice, entry)
	}
	if math.Abs(invQty-entQty) <= tolerance {
		return models.StatusPass, fmt.Sprintf("Invoice quantity %q matches entry print quantity %q.", invoice, entry)
	}
	return models.StatusFail, fmt.Sprintf("Invoice quantity %q does not match entry print quantity %q.", invoice, entry)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func summarizeLines(lines []models.LineVerdict) models.ValidationSummary {
	var s models.ValidationSummary
	for _, l := range lines {
		s.Total++
		switch l.OverallStatus {
		case models.StatusPass:
			s.Passed++
		case models.StatusFail:
			s.Failed++
		case models.StatusQuestionable:
			s.Questionable++
		default:
			s.NotApplicable++
		}
	}
	return s
}
