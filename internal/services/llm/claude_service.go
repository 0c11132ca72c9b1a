package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/semaphore"

	"github.com/ternarybob/scrutor/internal/common"
)

// ClaudeService is the Anthropic-backed Provider. Claude has no native
// response-schema enforcement, so the JSON schema is embedded in the system
// instruction and the response is fence-stripped before parsing.
type ClaudeService struct {
	config    common.LLMConfig
	logger    arbor.ILogger
	client    anthropic.Client
	sem       *semaphore.Weighted
	timeout   time.Duration
	maxTokens int64
}

// NewClaudeService creates a Claude provider from configuration.
func NewClaudeService(cfg *common.Config, logger arbor.ILogger) (*ClaudeService, error) {
	if cfg.LLM.APIKey == "" {
		return nil, fmt.Errorf("claude provider requires an API key (set LLM_API_KEY)")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.LLM.APIKey),
	)

	maxInFlight := cfg.LLM.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 100
	}

	logger.Info().
		Int("max_in_flight", maxInFlight).
		Msg("Claude provider initialized")

	return &ClaudeService{
		config:    cfg.LLM,
		logger:    logger,
		client:    client,
		sem:       semaphore.NewWeighted(int64(maxInFlight)),
		timeout:   cfg.LLM.TimeoutDuration(),
		maxTokens: 8192,
	}, nil
}

// Name returns the provider identifier.
func (s *ClaudeService) Name() string {
	return "claude"
}

// Close releases the client reference. The Claude client doesn't require
// explicit cleanup.
func (s *ClaudeService) Close() error {
	return nil
}

// GenerateStructured runs one generation attempt under the global
// in-flight cap and the per-attempt timeout.
func (s *ClaudeService) GenerateStructured(ctx context.Context, req GenerateRequest) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(req.Parts)*2)
	for _, p := range req.Parts {
		if p.PDF != nil {
			if p.Label != "" {
				blocks = append(blocks, anthropic.NewTextBlock(p.Label))
			}
			blocks = append(blocks, anthropic.NewDocumentBlock(anthropic.Base64PDFSourceParam{
				Data: base64.StdEncoding.EncodeToString(p.PDF),
			}))
			continue
		}
		blocks = append(blocks, anthropic.NewTextBlock(p.Text))
	}

	model := req.Model
	if model == "" {
		model = s.config.ClassifyModel
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: s.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(req.Temperature))
	}

	system := req.System
	if req.Schema != nil {
		schemaJSON, err := json.Marshal(req.Schema)
		if err != nil {
			return nil, InvalidInput("claude.generate", fmt.Errorf("marshal schema: %w", err))
		}
		system = system + "\n\nRespond with a single JSON value conforming to this schema, with no surrounding text:\n" + string(schemaJSON)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	start := time.Now()
	resp, err := s.client.Messages.New(callCtx, params)
	if err != nil {
		return nil, NewCallError("claude.generate", err)
	}

	var response strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			response.WriteString(block.Text)
		}
	}
	text := stripJSONFences(response.String())
	if text == "" {
		return nil, SchemaFault("claude.generate", fmt.Errorf("no text content in response"))
	}

	s.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(text)).
		Msg("Claude generation complete")

	return []byte(text), nil
}

// stripJSONFences removes a surrounding markdown code fence if present.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
