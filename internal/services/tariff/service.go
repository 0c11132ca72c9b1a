// Package tariff suggests Australian tariff classifications for extracted
// line items, grounding the model on chapter data fetched from the
// external tariff API.
package tariff

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/models"
	"github.com/ternarybob/scrutor/internal/services/llm"
)

const classifierSystemPrompt = `You are an Australian tariff classification expert.

You are given one imported line item plus grounded tariff data fetched for the declared code's chapter: flattened tariff entries and sanitized chapter notes.

Follow this STRICT classification process without asking follow-up questions:
1) Product Analysis
   - Extract and list key characteristics from the item description: material, form, function, use, species/type, etc.
2) Evaluate the declared code against the chapter data
   - Use the flattened tariff entries and chapter notes to decide whether the declared 8-digit code fits the goods.
3) Recommended Classification
   - Choose exactly 1 best suggestion (8-digit HS code + 2-digit stat code) and up to two alternatives.
   - When the chapter data indicates a tariff concession order is available for the suggested code, set the concession link using this schema:
     https://www.abf.gov.au/tariff-classification-subsite/Pages/TariffConcessionOrders.aspx?tcn={8-digit-number-without-dots}
   - Otherwise leave the concession link null.

Important constraints:
- HS codes must be 8 digits without dots. Statistical codes must be 2 digits.
- Justify your selection from the chapter data and notes provided; do not invent codes absent from them unless the declared chapter is plainly wrong.
- Reasoning must be normal English with no Markdown formatting.`

// Service is the AU tariff agent. Chapter lookups against the external
// API are rate limited; classification itself goes through the shared LLM
// provider.
type Service struct {
	provider llm.Provider
	logger   arbor.ILogger
	config   common.LLMConfig

	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	retry   llm.RetryConfig
}

// NewService creates the tariff agent.
func NewService(provider llm.Provider, cfg *common.Config, logger arbor.ILogger) *Service {
	rps := cfg.Tariff.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Tariff.Burst
	if burst <= 0 {
		burst = 1
	}

	retry := llm.NewDefaultRetryConfig()
	if cfg.LLM.MaxRetries > 0 {
		retry.MaxAttempts = cfg.LLM.MaxRetries
	}
	retry.InitialBackoff = cfg.LLM.InitialBackoffDuration()
	retry.MaxBackoff = cfg.LLM.MaxBackoffDuration()

	return &Service{
		provider: provider,
		logger:   logger,
		config:   cfg.LLM,
		baseURL:  strings.TrimRight(cfg.Tariff.BaseURL, "/"),
		client:   &http.Client{Timeout: cfg.Tariff.TimeoutDuration()},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		retry:    retry,
	}
}

type suggestionOutput struct {
	TariffCode          string   `json:"tariff_code"`
	StatCode            string   `json:"stat_code"`
	OtherSuggestedCodes []string `json:"other_suggested_codes"`
	ConcessionLink      *string  `json:"concession_link"`
	Reasoning           string   `json:"reasoning"`
}

// ClassifyLine suggests a classification for one extracted line item.
func (s *Service) ClassifyLine(ctx context.Context, item models.TariffLineItem) (*models.TariffSuggestion, error) {
	chapterData := s.chapterContext(ctx, item.TariffCode)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Line item %d\nDescription: %s\nDeclared tariff code: %s\nDeclared stat code: %s\nQuantity: %s\nUnit price: %s\n",
		item.LineNumber, item.Description, item.TariffCode, item.StatCode, item.InvoiceQuantity, item.UnitPrice)
	if item.ConcessionBylaw != "" {
		fmt.Fprintf(&prompt, "Claimed concession/by-law: %s\n", item.ConcessionBylaw)
	}
	if chapterData != "" {
		fmt.Fprintf(&prompt, "\nGrounded tariff data for the declared chapter:\n%s\n", chapterData)
	} else {
		prompt.WriteString("\nNo chapter data could be fetched; classify from the description alone and be conservative.\n")
	}

	req := llm.GenerateRequest{
		Model:       s.config.ValidateModel,
		System:      classifierSystemPrompt,
		Temperature: s.config.ValidateTemperature,
		Schema:      llm.TariffSuggestionSchema(),
		Parts:       []llm.Part{llm.TextPart(prompt.String())},
	}

	var out suggestionOutput
	err := s.retry.Do(ctx, s.logger, "tariff.classify", func(ctx context.Context) error {
		raw, err := s.provider.GenerateStructured(ctx, req)
		if err != nil {
			return err
		}
		out = suggestionOutput{}
		if err := json.Unmarshal(raw, &out); err != nil {
			return llm.SchemaFault("tariff.classify", fmt.Errorf("unparseable suggestion: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	suggestion := &models.TariffSuggestion{
		TariffCode:          out.TariffCode,
		StatCode:            out.StatCode,
		OtherSuggestedCodes: out.OtherSuggestedCodes,
		Reasoning:           out.Reasoning,
	}
	if out.ConcessionLink != nil {
		suggestion.ConcessionLink = *out.ConcessionLink
	}
	return suggestion, nil
}

// chapterContext fetches and sanitizes chapter tariffs plus chapter notes
// for the declared code. Lookup failures degrade to an empty context
// rather than failing the classification.
func (s *Service) chapterContext(ctx context.Context, declaredCode string) string {
	code := digits(declaredCode)
	if len(code) > 6 {
		code = code[:6]
	}
	if len(code) < 4 {
		return ""
	}

	tariffs := s.fetchJSON(ctx, fmt.Sprintf("%s/tariffs/chapter_flatten_tariffs?code=%s", s.baseURL, url.QueryEscape(code)))
	notes := s.fetchJSON(ctx, fmt.Sprintf("%s/chapters/by_code?code=%s", s.baseURL, url.QueryEscape(code[:2])))
	if tariffs == nil && notes == nil {
		return ""
	}

	payload := map[string]any{
		"rawData":      sanitizePayload(tariffs),
		"chapterNotes": sanitizePayload(notes),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return ""
	}
	// Chapter payloads can run to megabytes; cap what goes into the prompt.
	const maxContext = 200_000
	if len(data) > maxContext {
		data = data[:maxContext]
	}
	return string(data)
}

// fetchJSON performs one rate-limited GET and decodes the JSON body.
// Returns nil on any failure.
func (s *Service) fetchJSON(ctx context.Context, rawURL string) any {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Str("url", rawURL).Err(err).Msg("Tariff lookup failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Str("url", rawURL).Int("status", resp.StatusCode).Msg("Tariff lookup returned non-200")
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		s.logger.Warn().Str("url", rawURL).Err(err).Msg("Tariff lookup returned invalid JSON")
		return nil
	}

	s.logger.Debug().
		Str("url", rawURL).
		Dur("duration", time.Since(start)).
		Int("bytes", len(body)).
		Msg("Tariff lookup complete")
	return decoded
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
