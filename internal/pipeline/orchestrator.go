package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
	"github.com/ternarybob/scrutor/internal/models"
)

var (
	// ErrNoFiles is returned when a batch contains no uploads.
	ErrNoFiles = errors.New("no files to process")
	// ErrInvalidRegion is returned before any run directory is allocated
	// when the region is not a supported value.
	ErrInvalidRegion = errors.New("unsupported region")
)

// RunReporter renders a post-run artifact at the run root. Reporting is
// best-effort and never fails a run.
type RunReporter interface {
	WriteSummary(manifest *models.RunManifest) error
}

// Orchestrator executes batch runs. Job failures are isolated: a job that
// fails classification, persistence, or validation is recorded in the
// manifest with its error and the remaining jobs continue.
type Orchestrator struct {
	classifier interfaces.DocumentClassifier
	extractor  interfaces.DocumentExtractor
	validator  interfaces.BatchValidator
	reporter   RunReporter
	logger     arbor.ILogger

	outputDir        string
	maxParallelJobs  int
	maxParallelFiles int

	now func() time.Time
}

// NewOrchestrator wires the batch pipeline. reporter may be nil.
func NewOrchestrator(
	classifier interfaces.DocumentClassifier,
	extractor interfaces.DocumentExtractor,
	validator interfaces.BatchValidator,
	reporter RunReporter,
	cfg *common.Config,
	logger arbor.ILogger,
) *Orchestrator {
	jobs := cfg.Pipeline.MaxParallelJobs
	if jobs <= 0 {
		jobs = 4
	}
	files := cfg.Pipeline.MaxParallelFiles
	if files <= 0 {
		files = 8
	}

	return &Orchestrator{
		classifier:       classifier,
		extractor:        extractor,
		validator:        validator,
		reporter:         reporter,
		logger:           logger,
		outputDir:        cfg.Output.Directory,
		maxParallelJobs:  jobs,
		maxParallelFiles: files,
		now:              time.Now,
	}
}

// ProcessBatch runs the full pipeline over one upload. Input preconditions
// are checked before anything touches disk, so a rejected batch leaves no
// run directory behind.
func (o *Orchestrator) ProcessBatch(ctx context.Context, files []models.FileUpload, region models.Region) (*models.RunManifest, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	if _, err := models.ParseRegion(string(region)); err != nil {
		return nil, fmt.Errorf("%w %q", ErrInvalidRegion, region)
	}

	groups := Partition(files)

	runID, runPath, err := AllocateRun(o.outputDir, o.now())
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("run_id", runID).
		Str("region", string(region)).
		Int("files", len(files)).
		Int("jobs", len(groups)).
		Msg("Run started")

	manifest := &models.RunManifest{
		RunID:      runID,
		RunPath:    runPath,
		Region:     region,
		CreatedAt:  o.now().UTC(),
		TotalFiles: len(files),
		TotalJobs:  len(groups),
		Jobs:       make([]models.JobResult, len(groups)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxParallelJobs)
	for i, group := range groups {
		g.Go(func() error {
			manifest.Jobs[i] = o.processJob(gctx, runPath, region, group)
			return nil
		})
	}
	// Job errors land in manifest entries, never in the group error.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if o.reporter != nil {
		if err := o.reporter.WriteSummary(manifest); err != nil {
			o.logger.Warn().Str("run_id", runID).Err(err).Msg("Run summary report failed")
		}
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("jobs", len(manifest.Jobs)).
		Msg("Run complete")
	return manifest, nil
}

// processJob classifies, extracts, persists, and validates one job's
// files. It never returns an error: failures are captured in the result.
func (o *Orchestrator) processJob(ctx context.Context, runPath string, region models.Region, group JobGroup) (result models.JobResult) {
	result = models.JobResult{
		JobID:     group.JobID,
		FileCount: len(group.Files),
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().
				Str("job_id", group.JobID).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Job panicked")
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	jobPath, err := CreateJobDir(runPath, group.JobID)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.JobFolder = jobPath

	saved := make([]models.SavedFile, len(group.Files))
	fg, fctx := errgroup.WithContext(ctx)
	fg.SetLimit(o.maxParallelFiles)
	for i, file := range group.Files {
		fg.Go(func() error {
			record, err := o.processFile(fctx, jobPath, file)
			if err != nil {
				return err
			}
			saved[i] = record
			return nil
		})
	}
	if err := fg.Wait(); err != nil {
		result.Error = err.Error()
		return result
	}

	designated := designate(saved)

	if err := o.extractDesignated(ctx, jobPath, group, saved, designated); err != nil {
		result.Error = err.Error()
		result.ClassifiedFiles = saved
		return result
	}
	result.ClassifiedFiles = saved

	docs, err := o.designatedDocuments(saved, designated)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	if len(docs[models.DocumentTypeEntryPrint]) == 0 || len(docs[models.DocumentTypeCommercialInvoice]) == 0 {
		result.Error = "validation skipped: job is missing an entry print or commercial invoice document"
		o.logger.Warn().
			Str("job_id", group.JobID).
			Msg("Job lacks designated documents for validation")
		return result
	}

	validation, err := o.validator.Validate(ctx, region, group.JobID, docs)
	if err != nil {
		result.Error = err.Error()
		o.logger.Warn().
			Str("job_id", group.JobID).
			Err(err).
			Msg("Job validation failed")
		return result
	}
	result.ValidationResults = validation

	doc := &models.ValidationDocument{
		JobID:                 group.JobID,
		Region:                region,
		BatchValidationResult: *validation,
	}
	filename, err := SaveValidation(doc, runPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ValidationFile = filename

	if len(validation.TariffLines) > 0 {
		if _, err := SaveTariffLines(group.JobID, validation.TariffLines, runPath); err != nil {
			o.logger.Warn().
				Str("job_id", group.JobID).
				Err(err).
				Msg("Failed to persist tariff lines")
		}
	}

	return result
}

// processFile classifies one file and persists the type-labeled PDF.
// Extraction happens later, once the designated file per type is known.
func (o *Orchestrator) processFile(ctx context.Context, jobPath string, file models.FileUpload) (models.SavedFile, error) {
	docType, err := o.classifier.Classify(ctx, file.Content, file.Filename)
	if err != nil {
		return models.SavedFile{}, fmt.Errorf("classification of %s: %w", file.Filename, err)
	}

	savedName, savedPath, err := SavePDF(file.Content, file.Filename, docType, jobPath)
	if err != nil {
		return models.SavedFile{}, err
	}

	return models.SavedFile{
		OriginalFilename: file.Filename,
		SavedFilename:    savedName,
		SavedPath:        savedPath,
		DocumentType:     docType,
	}, nil
}

// designate selects the index of one file per validatable document type.
// Ties resolve to the lexicographically first saved filename so reruns
// pick the same file.
func designate(saved []models.SavedFile) map[models.DocumentType]int {
	designated := make(map[models.DocumentType]int)
	for i, sf := range saved {
		switch sf.DocumentType {
		case models.DocumentTypeEntryPrint, models.DocumentTypeCommercialInvoice, models.DocumentTypeAirWaybill:
		default:
			continue
		}
		current, ok := designated[sf.DocumentType]
		if !ok || sf.SavedFilename < saved[current].SavedFilename {
			designated[sf.DocumentType] = i
		}
	}
	return designated
}

// extractDesignated runs extraction for the designated file of each
// extractable type and writes its JSON sibling. Non-designated duplicates
// keep their PDF but never get a record.
func (o *Orchestrator) extractDesignated(ctx context.Context, jobPath string, group JobGroup, saved []models.SavedFile, designated map[models.DocumentType]int) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, docType := range []models.DocumentType{models.DocumentTypeEntryPrint, models.DocumentTypeCommercialInvoice} {
		idx, ok := designated[docType]
		if !ok {
			continue
		}
		g.Go(func() error {
			sf := &saved[idx]
			record, err := o.extractor.Extract(gctx, group.Files[idx].Content, sf.DocumentType)
			if err != nil {
				return fmt.Errorf("extraction of %s: %w", sf.OriginalFilename, err)
			}
			if record == nil {
				return nil
			}

			extractionFile, err := SaveExtraction(record, sf.OriginalFilename, sf.DocumentType, jobPath)
			if err != nil {
				return err
			}
			sf.ExtractedData = record
			sf.ExtractionFile = extractionFile
			return nil
		})
	}
	return g.Wait()
}

// designatedDocuments re-reads each designated file's bytes from its
// persisted copy for validation.
func (o *Orchestrator) designatedDocuments(saved []models.SavedFile, designated map[models.DocumentType]int) (map[models.DocumentType][]byte, error) {
	docs := make(map[models.DocumentType][]byte, len(designated))
	for docType, idx := range designated {
		content, err := os.ReadFile(saved[idx].SavedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read persisted document %s: %w", saved[idx].SavedFilename, err)
		}
		docs[docType] = content
	}
	return docs, nil
}
