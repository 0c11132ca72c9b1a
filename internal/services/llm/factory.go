package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
)

// NewProvider creates the configured LLM provider.
func NewProvider(cfg *common.Config, logger arbor.ILogger) (Provider, error) {
	switch cfg.LLM.Provider {
	case common.LLMProviderGemini, "":
		return NewGeminiService(cfg, logger)
	case common.LLMProviderClaude:
		return NewClaudeService(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (expected gemini or claude)", cfg.LLM.Provider)
	}
}
