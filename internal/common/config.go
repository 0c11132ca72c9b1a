package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Output      OutputConfig     `toml:"output"`
	Checklists  ChecklistsConfig `toml:"checklists"`
	LLM         LLMConfig        `toml:"llm"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Validation  ValidationConfig `toml:"validation"`
	Tariff      TariffConfig     `toml:"tariff"`
	Logging     LoggingConfig    `toml:"logging"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// OutputConfig controls where run directories are written and how long
// they are kept.
type OutputConfig struct {
	Directory     string `toml:"directory"`      // Base directory for run output (env: OUTPUT_DIRECTORY)
	RetentionDays int    `toml:"retention_days"` // Prune runs older than this many days (0 = keep forever)
	SummaryReport bool   `toml:"summary_report"` // Render run_summary.pdf at run completion
}

// ChecklistsConfig controls checklist file resolution. An empty Dir falls
// back to /app/checklists, then to a checklists directory next to the
// executable.
type ChecklistsConfig struct {
	Dir string `toml:"dir"` // Checklist directory (env: CHECKLISTS_DIR)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	Provider            LLMProvider `toml:"provider"`             // "gemini" or "claude" (default: "gemini")
	APIKey              string      `toml:"api_key"`              // API key (env: LLM_API_KEY)
	ClassifyModel       string      `toml:"classify_model"`       // Model for document classification
	ExtractModel        string      `toml:"extract_model"`        // Model for field extraction
	ValidateModel       string      `toml:"validate_model"`       // Model for checklist validation
	ClassifyTemperature float32     `toml:"classify_temperature"` // Classification/extraction temperature
	ValidateTemperature float32     `toml:"validate_temperature"` // Validation temperature
	ThinkingBudget      int         `toml:"thinking_budget"`      // Validation thinking token budget (0 = provider default)
	Timeout             string      `toml:"timeout"`              // Per-attempt timeout as duration string
	MaxInFlight         int         `toml:"max_in_flight"`        // Global cap on concurrent provider calls
	MaxRetries          int         `toml:"max_retries"`          // Attempts per call including the first
	InitialBackoff      string      `toml:"initial_backoff"`      // Base backoff as duration string
	MaxBackoff          string      `toml:"max_backoff"`          // Backoff ceiling as duration string
}

// Timeout returns the per-attempt timeout, falling back to two minutes on
// an unparseable value.
func (c LLMConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 2*time.Minute)
}

// InitialBackoffDuration returns the base retry backoff.
func (c LLMConfig) InitialBackoffDuration() time.Duration {
	return parseDuration(c.InitialBackoff, time.Second)
}

// MaxBackoffDuration returns the retry backoff ceiling.
func (c LLMConfig) MaxBackoffDuration() time.Duration {
	return parseDuration(c.MaxBackoff, time.Minute)
}

// PipelineConfig bounds batch fan-out.
type PipelineConfig struct {
	MaxParallelJobs  int `toml:"max_parallel_jobs"`  // Jobs processed concurrently within a run
	MaxParallelFiles int `toml:"max_parallel_files"` // Files classified concurrently within a job
}

// ValidationConfig controls optional validation behavior.
type ValidationConfig struct {
	TariffChecks bool `toml:"tariff_checks"` // Run per-line tariff classification checks (AU only)
}

// TariffConfig configures the external tariff lookup API client.
type TariffConfig struct {
	BaseURL           string  `toml:"base_url"`            // Tariff API base URL
	RequestsPerSecond float64 `toml:"requests_per_second"` // Rate limit for lookup calls
	Burst             int     `toml:"burst"`               // Rate limiter burst size
	Timeout           string  `toml:"timeout"`             // Lookup request timeout
}

// TimeoutDuration returns the lookup timeout, defaulting to 30s.
func (c TariffConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in scrutor.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Output: OutputConfig{
			Directory:     "./output",
			RetentionDays: 0,
			SummaryReport: true,
		},
		LLM: LLMConfig{
			Provider:            LLMProviderGemini,
			ClassifyModel:       "gemini-2.5-flash",
			ExtractModel:        "gemini-2.5-flash",
			ValidateModel:       "gemini-2.5-pro",
			ClassifyTemperature: 0.1,
			ValidateTemperature: 0.05,
			ThinkingBudget:      5000,
			Timeout:             "120s",
			MaxInFlight:         100,
			MaxRetries:          3,
			InitialBackoff:      "1s",
			MaxBackoff:          "60s",
		},
		Pipeline: PipelineConfig{
			MaxParallelJobs:  4,
			MaxParallelFiles: 8,
		},
		Validation: ValidationConfig{
			TariffChecks: false,
		},
		Tariff: TariffConfig{
			BaseURL:           "https://api.clear.ai/api/v1/au_tariff",
			RequestsPerSecond: 5,
			Burst:             5,
			Timeout:           "30s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path loads defaults plus environment overrides only.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	// The run directory contract hands absolute paths to external tooling.
	if abs, err := filepath.Abs(config.Output.Directory); err == nil {
		config.Output.Directory = abs
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRUTOR_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("SCRUTOR_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRUTOR_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Deployment contract variables take their documented names verbatim.
	if dir := os.Getenv("OUTPUT_DIRECTORY"); dir != "" {
		config.Output.Directory = dir
	}
	if dir := os.Getenv("CHECKLISTS_DIR"); dir != "" {
		config.Checklists.Dir = dir
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}

	if provider := os.Getenv("SCRUTOR_LLM_PROVIDER"); provider != "" {
		config.LLM.Provider = LLMProvider(provider)
	}
	if retention := os.Getenv("SCRUTOR_OUTPUT_RETENTION_DAYS"); retention != "" {
		if d, err := strconv.Atoi(retention); err == nil {
			config.Output.RetentionDays = d
		}
	}
	if jobs := os.Getenv("SCRUTOR_PIPELINE_MAX_PARALLEL_JOBS"); jobs != "" {
		if n, err := strconv.Atoi(jobs); err == nil && n > 0 {
			config.Pipeline.MaxParallelJobs = n
		}
	}
	if files := os.Getenv("SCRUTOR_PIPELINE_MAX_PARALLEL_FILES"); files != "" {
		if n, err := strconv.Atoi(files); err == nil && n > 0 {
			config.Pipeline.MaxParallelFiles = n
		}
	}
	if tariff := os.Getenv("SCRUTOR_VALIDATION_TARIFF_CHECKS"); tariff != "" {
		if b, err := strconv.ParseBool(tariff); err == nil {
			config.Validation.TariffChecks = b
		}
	}

	if level := os.Getenv("SCRUTOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies CLI flag values over the loaded config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
