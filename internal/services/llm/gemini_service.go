package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"

	"github.com/ternarybob/scrutor/internal/common"
)

// GeminiService is the Gemini-backed Provider. All calls share one
// weighted semaphore so the process never exceeds the configured number of
// in-flight provider requests, regardless of how many jobs fan out.
type GeminiService struct {
	config  common.LLMConfig
	logger  arbor.ILogger
	client  *genai.Client
	sem     *semaphore.Weighted
	timeout time.Duration
}

// NewGeminiService creates a Gemini provider from configuration.
func NewGeminiService(cfg *common.Config, logger arbor.ILogger) (*GeminiService, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key (set LLM_API_KEY)")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	maxInFlight := cfg.LLM.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 100
	}

	logger.Info().
		Str("classify_model", cfg.LLM.ClassifyModel).
		Str("validate_model", cfg.LLM.ValidateModel).
		Int("max_in_flight", maxInFlight).
		Msg("Gemini provider initialized")

	return &GeminiService{
		config:  cfg.LLM,
		logger:  logger,
		client:  client,
		sem:     semaphore.NewWeighted(int64(maxInFlight)),
		timeout: cfg.LLM.TimeoutDuration(),
	}, nil
}

// Name returns the provider identifier.
func (s *GeminiService) Name() string {
	return "gemini"
}

// Close releases the client reference. The genai.Client doesn't require
// explicit shutdown.
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}

// GenerateStructured runs one generation attempt under the global
// in-flight cap and the per-attempt timeout.
func (s *GeminiService) GenerateStructured(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	model := req.Model
	if model == "" {
		model = s.config.ClassifyModel
	}

	parts := make([]*genai.Part, 0, len(req.Parts)*2)
	for _, p := range req.Parts {
		if p.PDF != nil {
			if p.Label != "" {
				parts = append(parts, genai.NewPartFromText(p.Label))
			}
			parts = append(parts, genai.NewPartFromBytes(p.PDF, "application/pdf"))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = req.Schema
	}
	if req.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(req.ThinkingBudget),
		}
	}

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(callCtx, model, contents, config)
	if err != nil {
		return nil, NewCallError("gemini.generate", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, SchemaFault("gemini.generate", fmt.Errorf("no candidates in response"))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, SchemaFault("gemini.generate", fmt.Errorf("empty response text"))
	}

	s.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(text)).
		Msg("Gemini generation complete")

	return []byte(text), nil
}
