// Package app wires configuration, the LLM provider, the pipeline services,
// and the HTTP handlers into one application instance.
package app

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/handlers"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/pipeline"
	"github.com/ternarybob/scrutor/internal/services/checklist"
	"github.com/ternarybob/scrutor/internal/services/llm"
	"github.com/ternarybob/scrutor/internal/services/report"
	"github.com/ternarybob/scrutor/internal/services/retention"
	"github.com/ternarybob/scrutor/internal/services/tariff"
	"github.com/ternarybob/scrutor/internal/services/validation"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// LLM provider shared by classification, extraction, and validation
	Provider llm.Provider

	// Pipeline services
	Classifier     interfaces.DocumentClassifier
	Extractor      interfaces.DocumentExtractor
	ChecklistStore interfaces.ChecklistStore
	TariffAgent    interfaces.TariffAgent
	Validator      interfaces.BatchValidator
	Orchestrator   interfaces.BatchOrchestrator

	// Background maintenance
	Sweeper *retention.Sweeper

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	BatchHandler     *handlers.BatchHandler
	ChecklistHandler *handlers.ChecklistHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	provider, err := llm.NewProvider(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.Provider = provider

	app.Classifier = llm.NewClassifier(provider, cfg, logger)
	app.Extractor = llm.NewExtractor(provider, cfg, logger)
	app.ChecklistStore = checklist.NewStore(cfg, logger)

	// The tariff agent only participates when per-line checks are enabled.
	var tariffAgent interfaces.TariffAgent
	if cfg.Validation.TariffChecks {
		tariffAgent = tariff.NewService(provider, cfg, logger)
	}
	app.TariffAgent = tariffAgent

	app.Validator = validation.NewService(provider, app.ChecklistStore, tariffAgent, cfg, logger)

	var reporter pipeline.RunReporter
	if cfg.Output.SummaryReport {
		reporter = report.NewService(logger)
	}
	app.Orchestrator = pipeline.NewOrchestrator(
		app.Classifier,
		app.Extractor,
		app.Validator,
		reporter,
		cfg,
		logger,
	)

	app.Sweeper = retention.NewSweeper(cfg.Output.Directory, cfg.Output.RetentionDays, logger)
	if err := app.Sweeper.Start(); err != nil {
		return nil, err
	}

	app.APIHandler = handlers.NewAPIHandler(logger)
	app.BatchHandler = handlers.NewBatchHandler(app.Orchestrator, logger)
	app.ChecklistHandler = handlers.NewChecklistHandler(app.ChecklistStore, logger)

	logger.Info().
		Str("provider", string(cfg.LLM.Provider)).
		Str("output_dir", cfg.Output.Directory).
		Msg("Application initialized")

	return app, nil
}

// Close releases application resources.
func (a *App) Close() error {
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if a.Provider != nil {
		a.Provider.Close()
	}
	return nil
}
